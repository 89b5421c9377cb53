package api

import (
	"strings"
	"sync"

	"github.com/gregjones/httpcache"
)

// Compile-time interface satisfaction check.
var _ httpcache.Cache = (*Cache)(nil)

// Cache is an in-memory httpcache.Cache that can drop every entry stored
// under a URL prefix. Writes to a collection endpoint invalidate all cached
// reads of that endpoint, including filtered and paginated variants.
type Cache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string][]byte)}
}

// Get returns the cached response bytes for key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.items[key]
	return resp, ok
}

// Set stores resp under key.
func (c *Cache) Set(key string, resp []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = resp
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were dropped.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			n++
		}
	}
	return n
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string][]byte)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}
