// Package interfaces defines the core interfaces used throughout the application.
// These interfaces allow for dependency injection and make the code testable.
package interfaces

import (
	"context"
	"time"
)

// Namespace is an isolated cache key space with its own TTL and sweep interval
type Namespace string

const (
	// NamespaceFeed holds rendered feed documents
	NamespaceFeed Namespace = "feed"

	// NamespaceArticle holds per-article derived content
	NamespaceArticle Namespace = "article"

	// NamespaceImage holds proxied image bytes
	NamespaceImage Namespace = "image"
)

// Namespaces lists every namespace in a stable order
var Namespaces = []Namespace{NamespaceFeed, NamespaceArticle, NamespaceImage}

// CacheStore is the backing storage of a single namespace.
// Implementations can be in-memory, Redis, or any other key-value store.
//
// Example usage:
//
//	store := memory.NewMemoryCache(30*time.Minute, 2*time.Minute)
//
//	// Store a value
//	err := store.Set(ctx, "full-rss-feed:http://localhost:3000", xml, 30*time.Minute)
//
//	// Retrieve a value
//	data, err := store.Get(ctx, "full-rss-feed:http://localhost:3000")
//	if errors.IsCacheMiss(err) {
//		// regenerate
//	}
type CacheStore interface {
	// Get retrieves a copy of the value stored under key.
	// Returns errors.ErrCacheMiss if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a copy of value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	// Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Flush removes every key of the namespace.
	Flush(ctx context.Context) error

	// Len returns the number of live keys.
	Len(ctx context.Context) (int, error)
}

// Generator produces the value for a cache miss
type Generator func(ctx context.Context) ([]byte, error)

// CacheStats reports per-namespace counters
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Keys   int   `json:"keys"`
}

// Cache is the namespaced generate-or-fetch cache shared by every component.
type Cache interface {
	// Get returns the value stored under key, or errors.ErrCacheMiss.
	Get(ctx context.Context, ns Namespace, key string) ([]byte, error)

	// Set stores value under key. A ttl of 0 uses the namespace default.
	Set(ctx context.Context, ns Namespace, key string, value []byte, ttl time.Duration) error

	// GetOrGenerate returns the cached value or runs gen once for all
	// concurrent callers of the same key and stores its result.
	GetOrGenerate(ctx context.Context, ns Namespace, key string, gen Generator) ([]byte, error)

	// Clear empties every namespace.
	Clear(ctx context.Context) error

	// Stats reports hit, miss and key counts per namespace.
	Stats(ctx context.Context) map[Namespace]CacheStats
}
