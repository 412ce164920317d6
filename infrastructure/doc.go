// Package infrastructure provides concrete implementations of the interfaces
// defined in the core package.
//
// The infrastructure package is organized by technical concern:
//
// - cache/memory: namespace store on patrickmn/go-cache
// - cache/redis: namespace store on go-redis with key prefixes per namespace
// - http/standard: fetch client with per-class timeouts, retry and charset decoding
// - logger/structured: logrus-backed structured logger
// - render/rss: RSS 2.0 serialization with gorilla/feeds
//
// # Cache Implementations
//
// Memory store:
//
//	store := memory.NewMemoryCache(30*time.Minute, 2*time.Minute)
//	err := store.Set(ctx, "key", []byte("value"), 0)
//	value, err := store.Get(ctx, "key")
//
// Redis store:
//
//	redisCache, err := redis.NewRedisCache(config.RedisConfig{Address: "localhost:6379"})
//	store := redisCache.Store(interfaces.NamespaceImage, 24*time.Hour)
//	defer redisCache.Close()
package infrastructure
