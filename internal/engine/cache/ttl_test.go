// internal/engine/cache/ttl_test.go
package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL_PutGet(t *testing.T) {
	ctx := context.Background()
	c := NewTTL(4, time.Minute)

	c.Put(ctx, "q1", "answer one")

	got, ok := c.Get(ctx, "q1")
	require.True(t, ok)
	assert.Equal(t, "answer one", got)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestTTL_UpdateInPlace(t *testing.T) {
	ctx := context.Background()
	c := NewTTL(4, time.Minute)

	c.Put(ctx, "q1", "v1")
	c.Put(ctx, "q1", "v2")

	got, ok := c.Get(ctx, "q1")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
	assert.Equal(t, 1, c.Len())
}

func TestTTL_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewTTL(2, time.Minute)

	c.Put(ctx, "a", "1")
	c.Put(ctx, "b", "2")

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get(ctx, "a")
	require.True(t, ok)

	c.Put(ctx, "c", "3")

	_, ok = c.Get(ctx, "b")
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestTTL_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewTTL(4, time.Minute)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Put(ctx, "q1", "v1")

	current = current.Add(59 * time.Second)
	_, ok := c.Get(ctx, "q1")
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = c.Get(ctx, "q1")
	assert.False(t, ok, "entry must expire after the TTL")

	// Expired entries are dropped on read.
	assert.Equal(t, 0, c.Len())
}

func TestTTL_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewTTL(4, 0)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Put(ctx, "q1", "v1")

	current = current.Add(365 * 24 * time.Hour)
	_, ok := c.Get(ctx, "q1")
	assert.True(t, ok)
}

func TestTTL_CapacityClamped(t *testing.T) {
	ctx := context.Background()
	c := NewTTL(0, time.Minute)

	c.Put(ctx, "a", "1")
	c.Put(ctx, "b", "2")

	assert.Equal(t, 1, c.Len())
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewTTL(32, time.Minute)

	done := make(chan struct{})
	for w := 0; w < 4; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("k%d", i%8)
				c.Put(ctx, key, fmt.Sprintf("w%d-%d", w, i))
				c.Get(ctx, key)
			}
		}(w)
	}
	for w := 0; w < 4; w++ {
		<-done
	}

	assert.LessOrEqual(t, c.Len(), 8)
}
