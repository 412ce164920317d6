package summary

import (
	"context"
	"sync"
	"time"

	"pirss-api/core/domain"
	coreerrors "pirss-api/core/errors"
	"pirss-api/core/interfaces"
)

// mockFetcher is a mock implementation of the Fetcher interface
type mockFetcher struct {
	fetchArticleFunc func(ctx context.Context, url string, opts interfaces.ArticleOptions) (string, error)
}

func (m *mockFetcher) FetchFeed(ctx context.Context, url string) ([]byte, error) {
	return nil, nil
}

func (m *mockFetcher) FetchArticle(ctx context.Context, url string, opts interfaces.ArticleOptions) (string, error) {
	if m.fetchArticleFunc != nil {
		return m.fetchArticleFunc(ctx, url, opts)
	}
	return "", nil
}

func (m *mockFetcher) FetchImage(ctx context.Context, url string) (*domain.ImageData, error) {
	return nil, nil
}

// mapCache is an in-memory Cache that records what was stored
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (m *mapCache) key(ns interfaces.Namespace, key string) string {
	return string(ns) + "|" + key
}

func (m *mapCache) Get(ctx context.Context, ns interfaces.Namespace, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.entries[m.key(ns, key)]; ok {
		return v, nil
	}
	return nil, coreerrors.ErrCacheMiss
}

func (m *mapCache) Set(ctx context.Context, ns interfaces.Namespace, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.key(ns, key)] = value
	return nil
}

func (m *mapCache) GetOrGenerate(ctx context.Context, ns interfaces.Namespace, key string, gen interfaces.Generator) ([]byte, error) {
	if v, err := m.Get(ctx, ns, key); err == nil {
		return v, nil
	}
	v, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	m.Set(ctx, ns, key, v, 0)
	return v, nil
}

func (m *mapCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
	return nil
}

func (m *mapCache) Stats(ctx context.Context) map[interfaces.Namespace]interfaces.CacheStats {
	return nil
}

// mockLogger is a mock implementation of the Logger interface
type mockLogger struct {
	warnFunc  func(msg string, fields map[string]interface{})
	errorFunc func(msg string, fields map[string]interface{})
}

func (m *mockLogger) Debug(msg string, fields map[string]interface{}) {}

func (m *mockLogger) Info(msg string, fields map[string]interface{}) {}

func (m *mockLogger) Warn(msg string, fields map[string]interface{}) {
	if m.warnFunc != nil {
		m.warnFunc(msg, fields)
	}
}

func (m *mockLogger) Error(msg string, fields map[string]interface{}) {
	if m.errorFunc != nil {
		m.errorFunc(msg, fields)
	}
}
