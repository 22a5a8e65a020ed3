package update

import "sync"

// Broadcaster fans out updated Update ids to every subscriber, mirroring
// the register/unregister/broadcast shape of a connection manager but
// keyed on plain channels rather than websocket connections — the
// transport (websocket, SSE) is pkg/api's concern, not the journal's.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan string
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[string]chan string)}
}

// Subscribe registers a listener under id and returns its channel of
// updated Update ids. The channel is buffered so Publish never blocks on a
// slow subscriber; once the buffer is full, newly published ids are dropped
// for that subscriber and the ones already buffered are kept.
func (b *Broadcaster) Subscribe(id string, bufferSize int) <-chan string {
	ch := make(chan string, bufferSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish sends updateID to every subscriber, dropping it for any
// subscriber whose buffer is full rather than blocking the caller.
func (b *Broadcaster) Publish(updateID string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- updateID:
		default:
		}
	}
}
