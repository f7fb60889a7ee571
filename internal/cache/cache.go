// Package cache stores resolved reverse-geocoding labels so repeated hits on
// the same coordinates within a session do not burn provider quota. Nothing
// survives a restart; cross-session caching is out of scope.
package cache

import (
	"context"
	"sync"
	"time"
)

// LabelCache is the interface geocoding uses to memoize place labels.
// Get returns the cached label if present and not expired; Set stores a label
// with a TTL.
type LabelCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, label string, ttl time.Duration) error
}

// InMemoryCache implements LabelCache with a map and TTL-based expiration.
// Safe for concurrent use; expired entries are removed on access.
type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
}

type cacheEntry struct {
	label     string
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory label cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
	}
}

// Get retrieves the cached label for the key if present and not expired.
// Returns (label, true, nil) on hit, ("", false, nil) on miss or expiration.
func (c *InMemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return "", false, nil
	}

	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return "", false, nil
	}

	return entry.label, true, nil
}

// Set stores a label with the specified TTL.
func (c *InMemoryCache) Set(ctx context.Context, key string, label string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cacheEntry{
		label:     label,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}
