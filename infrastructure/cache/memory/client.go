// ABOUTME: In-memory cache store backed by patrickmn/go-cache
// ABOUTME: Holds one namespace with a default TTL and a periodic sweep of expired keys

package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	coreerrors "pirss-api/core/errors"
)

// MemoryCache implements the CacheStore interface using in-memory storage
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a store whose entries expire after defaultTTL and
// whose expired entries are purged every sweep
func NewMemoryCache(defaultTTL, sweep time.Duration) *MemoryCache {
	return &MemoryCache{
		items: gocache.New(defaultTTL, sweep),
	}
}

// Get retrieves a copy of the value stored under key
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, ok := c.items.Get(key)
	if !ok {
		return nil, coreerrors.ErrCacheMiss
	}

	stored := value.([]byte)
	result := make([]byte, len(stored))
	copy(result, stored)
	return result, nil
}

// Set stores a copy of value. A ttl of 0 uses the store default.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, valueCopy, ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// Flush removes every entry
func (c *MemoryCache) Flush(ctx context.Context) error {
	c.items.Flush()
	return nil
}

// Len returns the number of unexpired entries
func (c *MemoryCache) Len(ctx context.Context) (int, error) {
	// Items skips entries that expired but were not swept yet
	return len(c.items.Items()), nil
}
