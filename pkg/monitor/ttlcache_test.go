package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheServesCachedValueWithinTTL(t *testing.T) {
	c := NewTTLCache[int](time.Hour)
	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v1, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	v2, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, v1)
	assert.Equal(t, 1, v2)
	assert.Equal(t, 1, calls)
}

func TestTTLCacheRefetchesAfterExpiry(t *testing.T) {
	c := NewTTLCache[int](time.Millisecond)
	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	v2, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, v2)
}

func TestTTLCacheInvalidateForcesRefetch(t *testing.T) {
	c := NewTTLCache[int](time.Hour)
	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, _ = c.Get(context.Background(), "k", fetch)
	c.Invalidate("k")
	v2, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, v2)
}
