// Package samples provides the sample datasets the scenarios load into an
// index: embedded fixtures, allowlisted remote downloads behind a TTL cache,
// and conversion of CSV content into search documents.
package samples

import (
	"sync"
	"time"
)

type cacheEntry struct {
	data      []byte
	fetchedAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL expiration.
// Expired entries are dropped lazily on Get.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns cached data if present and not expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.fetchedAt) > c.ttl {
		// Re-check under the write lock, a concurrent Set may have refreshed it.
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && c.now().Sub(current.fetchedAt) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.data, true
}

// Set stores data stamped with the current time.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	c.entries[key] = &cacheEntry{data: data, fetchedAt: c.now()}
	c.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
