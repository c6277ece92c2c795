// Package cache holds processed files for the lifetime of the process.
package cache

import (
	"sync"
)

// DefaultMaxEntries bounds a FIFO created with a non-positive size.
const DefaultMaxEntries = 10

// FIFO is a bounded map that evicts the oldest inserted key once it holds
// more than its maximum number of entries. Reads do not refresh an
// entry's age. It is safe for concurrent use.
type FIFO[K comparable, V any] struct {
	mu      sync.RWMutex
	max     int
	entries map[K]V
	order   []K
	onEvict func(K, V)
}

// NewFIFO returns a cache holding at most maxEntries values.
func NewFIFO[K comparable, V any](maxEntries int) *FIFO[K, V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FIFO[K, V]{
		max:     maxEntries,
		entries: make(map[K]V, maxEntries+1),
	}
}

// OnEvict registers fn to be called, outside the lock, for every evicted
// entry.
func (c *FIFO[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Put stores v under k. Replacing an existing key keeps its position in
// the eviction order.
func (c *FIFO[K, V]) Put(k K, v V) {
	type evicted struct {
		k K
		v V
	}
	var gone []evicted

	c.mu.Lock()
	if _, ok := c.entries[k]; !ok {
		c.order = append(c.order, k)
	}
	c.entries[k] = v
	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		gone = append(gone, evicted{oldest, c.entries[oldest]})
		delete(c.entries, oldest)
	}
	fn := c.onEvict
	c.mu.Unlock()

	if fn != nil {
		for _, e := range gone {
			fn(e.k, e.v)
		}
	}
}

// Get returns the value stored under k.
func (c *FIFO[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[k]
	return v, ok
}

// Delete removes k if present.
func (c *FIFO[K, V]) Delete(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; !ok {
		return false
	}
	delete(c.entries, k)
	for i, key := range c.order {
		if key == k {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of entries.
func (c *FIFO[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Max returns the configured capacity.
func (c *FIFO[K, V]) Max() int { return c.max }

// Keys returns the keys from oldest to newest.
func (c *FIFO[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, len(c.order))
	copy(keys, c.order)
	return keys
}
