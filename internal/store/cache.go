package store

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a typed wrapper over an expiring in-process cache. It backs
// transient per-session state: best effort, safe to lose, reconstructed
// on miss.
type Cache[T any] struct {
	inner *gocache.Cache
}

// NewCache creates a cache whose entries expire after ttl and are purged
// every sweep interval.
func NewCache[T any](ttl, sweep time.Duration) *Cache[T] {
	return &Cache[T]{inner: gocache.New(ttl, sweep)}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	v, found := c.inner.Get(key)
	if !found {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.inner.Set(key, value, gocache.DefaultExpiration)
}

// Delete removes key from the cache.
func (c *Cache[T]) Delete(key string) {
	c.inner.Delete(key)
}

// Keys returns the currently cached keys. Expired entries are excluded.
func (c *Cache[T]) Keys() []string {
	items := c.inner.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}
