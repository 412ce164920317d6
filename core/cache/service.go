// ABOUTME: Namespaced cache service shared by feed generation, summaries and the image proxy
// ABOUTME: Adds per-namespace default TTLs, hit/miss counters and single-flight generation

package cache

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	coreerrors "pirss-api/core/errors"
	"pirss-api/core/interfaces"
)

// Namespace defaults
const (
	DefaultFeedTTL      = 1800 * time.Second
	DefaultFeedSweep    = 120 * time.Second
	DefaultArticleTTL   = 3600 * time.Second
	DefaultArticleSweep = 300 * time.Second
	DefaultImageTTL     = 86400 * time.Second
	DefaultImageSweep   = 600 * time.Second

	// DefaultGenerateTimeout bounds one shared generation
	DefaultGenerateTimeout = 2 * time.Minute
)

// NamespaceConfig is the store and default TTL of one namespace
type NamespaceConfig struct {
	Store interfaces.CacheStore
	TTL   time.Duration
}

// Options configures the cache service
type Options struct {
	Namespaces map[interfaces.Namespace]NamespaceConfig

	// Closer releases the backing connection on Close; optional
	Closer io.Closer

	// GenerateTimeout bounds a generation that outlives its callers
	GenerateTimeout time.Duration

	Logger interfaces.Logger
}

type namespace struct {
	store  interfaces.CacheStore
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// Service implements interfaces.Cache
type Service struct {
	namespaces map[interfaces.Namespace]*namespace
	group      singleflight.Group
	closer     io.Closer
	logger     interfaces.Logger

	generateTimeout time.Duration
}

// NewService creates a cache service. Every namespace must have a store.
func NewService(opts Options) (*Service, error) {
	s := &Service{
		namespaces: make(map[interfaces.Namespace]*namespace, len(interfaces.Namespaces)),
		closer:     opts.Closer,
		logger:     opts.Logger,

		generateTimeout: opts.GenerateTimeout,
	}
	if s.generateTimeout <= 0 {
		s.generateTimeout = DefaultGenerateTimeout
	}

	for _, ns := range interfaces.Namespaces {
		cfg, ok := opts.Namespaces[ns]
		if !ok || cfg.Store == nil {
			return nil, fmt.Errorf("cache namespace %q has no store", ns)
		}
		if cfg.TTL <= 0 {
			return nil, fmt.Errorf("cache namespace %q needs a positive ttl", ns)
		}
		s.namespaces[ns] = &namespace{store: cfg.Store, ttl: cfg.TTL}
	}

	return s, nil
}

// FeedKey builds the feed namespace key for a feed served at baseURL
func FeedKey(feedID, baseURL string) string {
	return feedID + ":" + strings.TrimSuffix(baseURL, "/")
}

func (s *Service) lookup(ns interfaces.Namespace) (*namespace, error) {
	n, ok := s.namespaces[ns]
	if !ok {
		return nil, fmt.Errorf("unknown cache namespace %q", ns)
	}
	return n, nil
}

// Get returns a copy of the stored value and counts the hit or miss
func (s *Service) Get(ctx context.Context, ns interfaces.Namespace, key string) ([]byte, error) {
	n, err := s.lookup(ns)
	if err != nil {
		return nil, err
	}

	value, err := n.store.Get(ctx, key)
	if err != nil {
		n.misses.Add(1)
		if !coreerrors.IsCacheMiss(err) {
			s.warn("Cache read failed", ns, key, err)
		}
		return nil, coreerrors.ErrCacheMiss
	}

	n.hits.Add(1)
	s.debug("Cache hit", ns, key)
	return value, nil
}

// Set stores value under key. A ttl of 0 uses the namespace default.
func (s *Service) Set(ctx context.Context, ns interfaces.Namespace, key string, value []byte, ttl time.Duration) error {
	n, err := s.lookup(ns)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = n.ttl
	}
	return n.store.Set(ctx, key, value, ttl)
}

// GetOrGenerate returns the cached value, or runs gen once for every
// concurrent caller of the same key and caches a successful result.
// Generator errors are returned to all waiting callers and never cached.
// gen runs detached from any single caller, so a caller that gives up
// only abandons its own wait.
func (s *Service) GetOrGenerate(ctx context.Context, ns interfaces.Namespace, key string, gen interfaces.Generator) ([]byte, error) {
	n, err := s.lookup(ns)
	if err != nil {
		return nil, err
	}

	if value, err := s.Get(ctx, ns, key); err == nil {
		return value, nil
	}
	s.debug("Cache miss", ns, key)

	flight := s.group.DoChan(string(ns)+"\x00"+key, func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.generateTimeout)
		defer cancel()

		// A flight that just finished may have stored the value
		if value, err := n.store.Get(genCtx, key); err == nil {
			return value, nil
		}

		value, err := gen(genCtx)
		if err != nil {
			return nil, err
		}

		if err := n.store.Set(genCtx, key, value, n.ttl); err != nil {
			s.warn("Cache write failed", ns, key, err)
		}
		return value, nil
	})

	var result singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result = <-flight:
	}
	if result.Err != nil {
		return nil, result.Err
	}

	value := result.Val.([]byte)
	if result.Shared {
		out := make([]byte, len(value))
		copy(out, value)
		return out, nil
	}
	return value, nil
}

// Clear empties every namespace. Counters are kept.
func (s *Service) Clear(ctx context.Context) error {
	var firstErr error
	for _, ns := range interfaces.Namespaces {
		if err := s.namespaces[ns].store.Flush(ctx); err != nil && firstErr == nil {
			firstErr = coreerrors.WrapError(err, fmt.Sprintf("failed to clear %s cache", ns))
		}
	}
	return firstErr
}

// Stats reports hit, miss and live key counts per namespace
func (s *Service) Stats(ctx context.Context) map[interfaces.Namespace]interfaces.CacheStats {
	stats := make(map[interfaces.Namespace]interfaces.CacheStats, len(s.namespaces))
	for ns, n := range s.namespaces {
		keys, err := n.store.Len(ctx)
		if err != nil {
			s.warn("Cache key count failed", ns, "", err)
		}
		stats[ns] = interfaces.CacheStats{
			Hits:   n.hits.Load(),
			Misses: n.misses.Load(),
			Keys:   keys,
		}
	}
	return stats
}

// Close clears every namespace and releases the backing connection
func (s *Service) Close(ctx context.Context) error {
	err := s.Clear(ctx)
	if s.closer != nil {
		if closeErr := s.closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func (s *Service) debug(msg string, ns interfaces.Namespace, key string) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(msg, map[string]interface{}{
		"namespace": string(ns),
		"key":       key,
	})
}

func (s *Service) warn(msg string, ns interfaces.Namespace, key string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(msg, map[string]interface{}{
		"namespace": string(ns),
		"key":       key,
		"error":     err.Error(),
	})
}
