package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// Broadcaster is the global (build_id → cancelled) single-producer
// multi-consumer channel RunBuild subscribes to and CancelBuild publishes
// on.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]map[int]chan struct{}
	nextID      int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[string]map[int]chan struct{})}
}

// Subscribe returns a channel closed when buildID is cancelled, plus an
// unsubscribe func to release it.
func (b *Broadcaster) Subscribe(buildID string) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[buildID] == nil {
		b.subscribers[buildID] = make(map[int]chan struct{})
	}
	id := b.nextID
	b.nextID++
	ch := make(chan struct{})
	b.subscribers[buildID][id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers[buildID], id)
		if len(b.subscribers[buildID]) == 0 {
			delete(b.subscribers, buildID)
		}
	}
}

// Cancel closes every subscriber channel for buildID.
func (b *Broadcaster) Cancel(buildID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers[buildID] {
		close(ch)
	}
	delete(b.subscribers, buildID)
}

// ErrCancelConflict is returned when a CancelBuild is already InProgress
// for the same build.
type ErrCancelConflict struct {
	BuildID string
}

func (e *ErrCancelConflict) Error() string {
	return fmt.Sprintf("cancel build %s already in progress", e.BuildID)
}

// CancelBuildHandler returns ErrCancelConflict when inProgress reports that
// another CancelBuild for this build is already InProgress (CancelBuild has
// no actionstate flag, so this callback is the only check); otherwise it
// publishes the cancel on broadcaster.
func CancelBuildHandler(broadcaster *Broadcaster, inProgress func(buildID string) bool) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		if inProgress != nil && inProgress(req.Target.ID) {
			return &ErrCancelConflict{BuildID: req.Target.ID}
		}
		broadcaster.Cancel(req.Target.ID)
		return journal.AppendLog(ctx, u, models.Log{Stage: "cancel", Stdout: "cancel published", Success: true})
	}
}
