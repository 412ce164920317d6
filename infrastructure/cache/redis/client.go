// ABOUTME: Redis cache store using the go-redis client
// ABOUTME: Shares one connection pool across namespaces, each isolated by a key prefix

package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	coreerrors "pirss-api/core/errors"
	"pirss-api/core/interfaces"
	"pirss-api/pkg/config"
)

const (
	keyPrefix = "pirss:"
	scanBatch = 200
)

// RedisCache owns the Redis connection shared by all namespace stores
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis connection and verifies it with PING
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// Store returns the store for one namespace with its default TTL
func (c *RedisCache) Store(ns interfaces.Namespace, defaultTTL time.Duration) *Store {
	return &Store{
		client:     c.client,
		prefix:     namespacePrefix(ns),
		defaultTTL: defaultTTL,
	}
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Store implements CacheStore for a single prefixed namespace
type Store struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

func namespacePrefix(ns interfaces.Namespace) string {
	return keyPrefix + string(ns) + ":"
}

// Get retrieves a value from Redis
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, coreerrors.ErrCacheMiss
		}
		return nil, err
	}

	return val, nil
}

// Set stores a value in Redis. A ttl of 0 uses the store default.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Delete removes a key from Redis
func (s *Store) Delete(ctx context.Context, key string) error {
	// Deleting a missing key is not an error
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Flush removes every key under the namespace prefix
func (s *Store) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Len counts the keys under the namespace prefix
func (s *Store) Len(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}
