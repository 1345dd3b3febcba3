// Package lru provides a bounded key/value cache with least-recently-used
// eviction and per-entry expiry. It shields remote fetches and computed
// lookups from repeated cost.
package lru

import (
	"container/list"
	"sync"
	"time"
)

// Capacity is configured as a byte budget and converted to an entry count
// using an approximate fixed per-entry cost.
const (
	DefaultMaxBytes = 100 * 1024 * 1024
	DefaultTTL      = time.Hour

	bytesPerEntry = 1024
	minEntries    = 100
)

// Cache is a string-keyed LRU cache with lazy TTL expiry. Expired entries
// are evicted as a side effect of lookup; there is no background sweep.
// Safe for concurrent use.
type Cache[V any] struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	ll    *list.List
	items map[string]*list.Element
}

type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock overrides the cache's time source. Used in tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		c.now = now
	}
}

// New creates a Cache bounded by maxBytes (at ~1KiB per entry, floor 100
// entries) whose entries expire ttl after insertion.
func New[V any](maxBytes int, ttl time.Duration, opts ...Option[V]) *Cache[V] {
	maxEntries := maxBytes / bytesPerEntry
	if maxEntries < minEntries {
		maxEntries = minEntries
	}

	c := &Cache[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key. An entry older than the TTL is
// treated as absent and removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	ent := el.Value.(*entry[V])
	if c.now().Sub(ent.insertedAt) > c.ttl {
		c.removeElement(el)
		return zero, false
	}

	c.ll.MoveToFront(el)
	return ent.value, true
}

// Set stores value under key, refreshing its insertion time. The least
// recently used entry is evicted once the entry count exceeds capacity.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[V])
		ent.value = value
		ent.insertedAt = c.now()
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry[V]{key: key, value: value, insertedAt: c.now()})
	c.items[key] = el

	if c.ll.Len() > c.maxEntries {
		if back := c.ll.Back(); back != nil {
			c.removeElement(back)
		}
	}
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	clear(c.items)
}

// Len returns the number of stored entries, including any not yet observed
// to be expired.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ll.Len()
}

func (c *Cache[V]) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
