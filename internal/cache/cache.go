// Package cache is the short-lived response cache owned by the route layer.
// Entries expire after a fixed TTL and are invalidated by exact key.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Keys for the cached index resources.
const (
	KeyTags     = "tags"
	KeyProjects = "projects"
)

// MetadataKey is the key of a cached metadata record.
func MetadataKey(id string) string {
	return "metadata:" + id
}

// Cache is a size-bounded TTL cache.
type Cache struct {
	lru *expirable.LRU[string, any]
}

// New creates a cache holding at most size entries for ttl each.
func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1024
	}
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

// Set stores v under key.
func (c *Cache) Set(key string, v any) {
	c.lru.Add(key, v)
}

// Invalidate removes exactly the given keys.
func (c *Cache) Invalidate(keys ...string) {
	for _, k := range keys {
		c.lru.Remove(k)
	}
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Lookup returns the cached T under key, or calls load and caches its
// result on a miss. Errors are not cached.
func Lookup[T any](c *Cache, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	t, err := load()
	if err != nil {
		return t, err
	}
	c.Set(key, t)
	return t, nil
}
