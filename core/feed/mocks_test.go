package feed

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
	fetchFeedFunc    func(ctx context.Context, url string) ([]byte, error)
	fetchArticleFunc func(ctx context.Context, url string, opts interfaces.ArticleOptions) (string, error)
}

func (m *mockFetcher) FetchFeed(ctx context.Context, url string) ([]byte, error) {
	if m.fetchFeedFunc != nil {
		return m.fetchFeedFunc(ctx, url)
	}
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

// mockCache is a mock implementation of the Cache interface
type mockCache struct {
	mu                sync.Mutex
	getOrGenerateFunc func(ctx context.Context, ns interfaces.Namespace, key string, gen interfaces.Generator) ([]byte, error)
	setFunc           func(ctx context.Context, ns interfaces.Namespace, key string, value []byte, ttl time.Duration) error
}

func (m *mockCache) Get(ctx context.Context, ns interfaces.Namespace, key string) ([]byte, error) {
	return nil, coreerrors.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, ns interfaces.Namespace, key string, value []byte, ttl time.Duration) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, ns, key, value, ttl)
	}
	return nil
}

func (m *mockCache) GetOrGenerate(ctx context.Context, ns interfaces.Namespace, key string, gen interfaces.Generator) ([]byte, error) {
	if m.getOrGenerateFunc != nil {
		return m.getOrGenerateFunc(ctx, ns, key, gen)
	}
	return gen(ctx)
}

func (m *mockCache) Clear(ctx context.Context) error {
	return nil
}

func (m *mockCache) Stats(ctx context.Context) map[interfaces.Namespace]interfaces.CacheStats {
	return nil
}

// mockRenderer is a mock implementation of the FeedRenderer interface
type mockRenderer struct {
	renderFunc func(doc domain.FeedDocument) ([]byte, error)
}

func (m *mockRenderer) Render(doc domain.FeedDocument) ([]byte, error) {
	if m.renderFunc != nil {
		return m.renderFunc(doc)
	}
	return []byte("<rss/>"), nil
}

// mockEnricher is a mock implementation of the Enricher interface
type mockEnricher struct {
	enrichFunc func(ctx context.Context, record domain.ArticleRecord) string
}

func (m *mockEnricher) Enrich(ctx context.Context, record domain.ArticleRecord) string {
	if m.enrichFunc != nil {
		return m.enrichFunc(ctx, record)
	}
	return ""
}

// mockExtractor is a mock implementation of the ContentExtractor interface
type mockExtractor struct {
	extractFunc func(pageHTML, articleURL string) domain.ExtractionResult
}

func (m *mockExtractor) Extract(pageHTML, articleURL string) domain.ExtractionResult {
	if m.extractFunc != nil {
		return m.extractFunc(pageHTML, articleURL)
	}
	return domain.ExtractionResult{}
}

// mockSynthesizer is a mock implementation of the SummarySynthesizer interface
type mockSynthesizer struct {
	synthesizeFunc func(ctx context.Context, record domain.ArticleRecord) string
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, record domain.ArticleRecord) string {
	if m.synthesizeFunc != nil {
		return m.synthesizeFunc(ctx, record)
	}
	return ""
}

// mockLogger is a mock implementation of the Logger interface
type mockLogger struct {
	debugFunc func(msg string, fields map[string]interface{})
	infoFunc  func(msg string, fields map[string]interface{})
	warnFunc  func(msg string, fields map[string]interface{})
	errorFunc func(msg string, fields map[string]interface{})
}

func (m *mockLogger) Debug(msg string, fields map[string]interface{}) {
	if m.debugFunc != nil {
		m.debugFunc(msg, fields)
	}
}

func (m *mockLogger) Info(msg string, fields map[string]interface{}) {
	if m.infoFunc != nil {
		m.infoFunc(msg, fields)
	}
}

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
