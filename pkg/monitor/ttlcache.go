package monitor

import (
	"context"
	"sync"
	"time"
)

// TTLCache wraps an expensive periphery read (system information, system
// processes) with a short TTL so UI polling can't flood the agent.
type TTLCache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]ttlEntry[T]
	now     func() time.Time
}

type ttlEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{ttl: ttl, entries: make(map[string]ttlEntry[T]), now: time.Now}
}

// Get returns the cached value for key if still fresh, or calls fetch to
// populate it.
func (c *TTLCache[T]) Get(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	now := c.now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = ttlEntry[T]{value: value, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}

// Invalidate forces the next Get for key to re-fetch.
func (c *TTLCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
