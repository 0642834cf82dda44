package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a simple in-memory TTL cache for catalog query results.
// Keys are namespaced by the caller ("site:kind[:arg]").
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
}

type entry struct {
	value     any
	timestamp time.Time
}

// New creates a Cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		items: make(map[string]entry),
		ttl:   ttl,
	}
}

// Get returns the value and true if present and fresh.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(e.timestamp) > c.ttl {
		// stale
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set inserts or updates a key.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.items[key] = entry{value: value, timestamp: time.Now()}
	c.mu.Unlock()
}

// Invalidate drops every key with the given prefix. Used when a
// tenant's data directory changes on disk.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.items, k)
		}
	}
}

// Size returns the current number of items.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Cleanup removes stale entries.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.items {
		if now.Sub(e.timestamp) > c.ttl {
			delete(c.items, k)
		}
	}
}

// Janitor sweeps stale entries on the given interval until ctx is done.
func (c *Cache) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}
