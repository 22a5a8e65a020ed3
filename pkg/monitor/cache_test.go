package monitor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetShiftsCurrIntoPrev(t *testing.T) {
	c := NewCache[int]()
	c.Set("k", 1)
	c.Set("k", 2)

	h := c.Get("k")
	assert.Equal(t, 2, h.Curr)
	assert.Equal(t, 1, h.Prev)
}

func TestCacheGetOnMissingKeyReturnsZeroValue(t *testing.T) {
	c := NewCache[int]()
	h := c.Get("missing")
	assert.Equal(t, 0, h.Curr)
	assert.Equal(t, 0, h.Prev)
}

func TestCacheDeleteRemovesKey(t *testing.T) {
	c := NewCache[string]()
	c.Set("k", "v")
	c.Delete("k")

	assert.NotContains(t, c.Keys(), "k")
}

func TestCacheKeysListsAllEntries(t *testing.T) {
	c := NewCache[int]()
	c.Set("a", 1)
	c.Set("b", 2)

	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
}

func TestCacheConcurrentSetsOnDistinctKeysDoNotRace(t *testing.T) {
	c := NewCache[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Set(string(rune('a'+i%26)), j)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, len(c.Keys()), 26)
}
