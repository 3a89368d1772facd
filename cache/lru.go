package cache

import (
	"container/list"
	"time"
)

const (
	// DefaultCapacity is used when NewLRU receives a non-positive capacity.
	DefaultCapacity = 100

	// DefaultTTL is used when NewLRU receives a non-positive TTL.
	DefaultTTL = 5 * time.Minute
)

// LRU is a fixed-capacity map with a single time-to-live applied to every
// entry and least-recently-used eviction.
//
// Entries expire lazily: an expired entry is only removed when Get touches
// it, so it keeps its slot until then (or until LRU eviction claims it).
//
// LRU is not safe for concurrent use. Wrap it (see [Local]) when it is
// shared between goroutines.
type LRU[V any] struct {
	capacity int
	ttl      time.Duration

	items map[string]*list.Element
	order *list.List // Front = least recently used, Back = most recently used

	nowFunc func() time.Time // for testing; defaults to time.Now
}

type lruEntry[V any] struct {
	key    string
	value  V
	expiry time.Time
}

// NewLRU creates an empty cache holding at most capacity entries, each living
// for ttl after its last Set.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		nowFunc:  time.Now,
	}
}

// Get returns the value stored under key. The boolean is false when the key
// is missing or its entry has expired; an expired entry is removed as a side
// effect. A hit marks the key as most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	v, _, ok := c.GetWithTTL(key)
	return v, ok
}

// GetWithTTL is Get plus the time the entry has left before it expires.
func (c *LRU[V]) GetWithTTL(key string) (V, time.Duration, bool) {
	var zero V

	el, ok := c.items[key]
	if !ok {
		return zero, 0, false
	}

	e := el.Value.(*lruEntry[V])
	now := c.now()
	if now.After(e.expiry) {
		c.remove(el)
		return zero, 0, false
	}

	c.order.MoveToBack(el)
	return e.value, e.expiry.Sub(now), true
}

// Set stores value under key with a fresh expiry. An existing entry for key
// is dropped first so the key lands at the most-recently-used end. When the
// cache is full the least recently used entry is evicted.
func (c *LRU[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL is Set with a shorter lifetime, used when an entry is copied
// from another cache and must keep its original expiry. A non-positive ttl,
// or one longer than the cache TTL, means the cache TTL.
func (c *LRU[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 || ttl > c.ttl {
		ttl = c.ttl
	}

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}

	if len(c.items) >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.remove(oldest)
		}
	}

	c.items[key] = c.order.PushBack(&lruEntry[V]{
		key:    key,
		value:  value,
		expiry: c.now().Add(ttl),
	})
}

// Clear removes every entry.
func (c *LRU[V]) Clear() {
	clear(c.items)
	c.order.Init()
}

// Len returns the number of stored entries, including expired entries that
// have not been read since they expired.
func (c *LRU[V]) Len() int {
	return len(c.items)
}

// Keys returns the stored keys from least to most recently used.
func (c *LRU[V]) Keys() []string {
	out := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*lruEntry[V]).key)
	}
	return out
}

func (c *LRU[V]) remove(el *list.Element) {
	delete(c.items, el.Value.(*lruEntry[V]).key)
	c.order.Remove(el)
}

func (c *LRU[V]) now() time.Time {
	if c.nowFunc != nil {
		return c.nowFunc()
	}
	return time.Now()
}
