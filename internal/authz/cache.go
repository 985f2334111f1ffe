// Package authz resolves effective permissions for an identity through a
// process-local, TTL-bound cache over the role store.
package authz

import (
	"sync"
	"time"
)

type cacheEntry struct {
	permissions []string
	expiresAt   time.Time
}

// Cache is an in-memory permission cache with per-entry expiry. Entries are
// process-local: each server instance warms and invalidates its own copy.
type Cache struct {
	mu   sync.RWMutex
	m    map[string]cacheEntry
	nowF func() time.Time
}

// NewCache returns an empty Cache on the wall clock.
func NewCache() *Cache {
	return newCacheWithClock(func() time.Time { return time.Now().UTC() })
}

// newCacheWithClock is the test seam for expiry behavior.
func newCacheWithClock(nowF func() time.Time) *Cache {
	return &Cache{
		m:    make(map[string]cacheEntry),
		nowF: nowF,
	}
}

// Get returns the cached permissions for key if present and not expired.
func (c *Cache) Get(key string) ([]string, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.After(c.nowF()) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.permissions, true
}

// Put stores permissions for key until now+ttl.
func (c *Cache) Put(key string, permissions []string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = cacheEntry{permissions: permissions, expiresAt: c.nowF().Add(ttl)}
}

// Delete removes key. Missing keys are a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}
