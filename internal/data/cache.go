package data

import (
	"sort"
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// RunCache keeps results of API runs in memory for a limited time so that
// clients can fetch them again by run ID.
type RunCache[T any] struct {
	mu    sync.RWMutex
	store map[string]cacheEntry[T]
	ttl   time.Duration
	now   func() time.Time
}

func NewRunCache[T any](ttl time.Duration) *RunCache[T] {
	return &RunCache[T]{
		store: make(map[string]cacheEntry[T]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves a cached value if present and not expired.
func (c *RunCache[T]) Get(key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.expiresAt) {
		return zero, false
	}
	return entry.value, true
}

func (c *RunCache[T]) Set(key string, value T) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = cacheEntry[T]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Keys lists the live keys in sorted order.
func (c *RunCache[T]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	keys := make([]string, 0, len(c.store))
	for k, e := range c.store {
		if !now.After(e.expiresAt) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Evict removes expired entries and returns how many were dropped.
func (c *RunCache[T]) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.store {
		if now.After(e.expiresAt) {
			delete(c.store, k)
			n++
		}
	}
	return n
}

// Janitor evicts expired entries every interval until stop is closed.
func (c *RunCache[T]) Janitor(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Evict()
		case <-stop:
			return
		}
	}
}
