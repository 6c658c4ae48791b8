// internal/engine/cache/ttl.go
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Store is the get/put contract shared by the in-process and Redis-backed
// caches. Values are opaque strings; callers serialize what they need.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string)
}

type ttlEntry struct {
	key     string
	value   string
	expires time.Time
}

// TTL is a bounded, time-aware in-process cache. Entries expire after the
// configured TTL and the least recently used entry is evicted once capacity
// is reached. Safe for concurrent use.
type TTL struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	now      func() time.Time
}

// NewTTL creates a bounded TTL cache. Capacity must be positive; ttl of zero
// means entries never expire (capacity still bounds the cache).
func NewTTL(capacity int, ttl time.Duration) *TTL {
	if capacity <= 0 {
		capacity = 1
	}
	return &TTL{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key when present and unexpired.
func (c *TTL) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := el.Value.(*ttlEntry)
	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.order.Remove(el)
		delete(c.entries, key)
		return "", false
	}

	c.order.MoveToFront(el)
	return entry.value, true
}

// Put stores value under key, evicting the least recently used entry when the
// cache is full.
func (c *TTL) Put(_ context.Context, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*ttlEntry)
		entry.value = value
		entry.expires = expires
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*ttlEntry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&ttlEntry{key: key, value: value, expires: expires})
}

// Len returns the current number of entries, expired ones included.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
