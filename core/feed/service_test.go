package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pirss-api/core/domain"
	coreerrors "pirss-api/core/errors"
	"pirss-api/core/extract"
	"pirss-api/core/interfaces"
	"pirss-api/infrastructure/render/rss"
)

const twoItemFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>SSPAI</title>
<item><title>Good article</title><link>https://sspai.com/post/1</link><guid>1</guid><pubDate>Mon, 04 Mar 2024 10:00:00 +0000</pubDate></item>
<item><title>Broken article</title><link>https://sspai.com/post/2</link><guid>2</guid></item>
</channel></rss>`

const goodArticlePage = `<html><body><div class="article-body">
<p>Real article content.</p>
<img src="https://cdnfile.sspai.com/pic.jpg"/>
</div></body></html>`

func primaryDefinition(enricher interfaces.Enricher) Definition {
	return Definition{
		ID:          "full-rss-feed",
		Path:        "/sspai",
		SourceURL:   "https://sspai.com/feed",
		SiteURL:     "https://sspai.com",
		Title:       "SSPAI (少数派) - Full Text Feed",
		Description: "Full-text RSS feed",
		Language:    "zh-CN",
		TTLMinutes:  30,
		Enricher:    enricher,
	}
}

func TestNewService(t *testing.T) {
	service := NewService(interfaces.Dependencies{}, &mockRenderer{}, 0)

	if service == nil {
		t.Fatal("NewService returned nil")
	}
	if service.maxConcurrency != defaultMaxConcurrency {
		t.Errorf("maxConcurrency = %d, want %d", service.maxConcurrency, defaultMaxConcurrency)
	}
}

func TestGenerate_EndToEndWithOneFailingArticle(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFeedFunc: func(ctx context.Context, url string) ([]byte, error) {
			return []byte(twoItemFeed), nil
		},
		fetchArticleFunc: func(ctx context.Context, url string, opts interfaces.ArticleOptions) (string, error) {
			if strings.HasSuffix(url, "/2") {
				return "", &coreerrors.NetworkError{URL: url, Attempts: 3, Err: errors.New("timeout")}
			}
			return goodArticlePage, nil
		},
	}
	logger := &mockLogger{}
	cfg := extract.DefaultConfig()
	cfg.Readability = false

	enricher := &FullTextEnricher{
		Fetcher:    fetcher,
		Extractor:  extract.NewExtractor(cfg, logger),
		Logger:     logger,
		SourceName: "SSPAI",
	}

	var rendered domain.FeedDocument
	renderer := &mockRenderer{
		renderFunc: func(doc domain.FeedDocument) ([]byte, error) {
			rendered = doc
			return rss.NewRenderer().Render(doc)
		},
	}

	service := NewService(interfaces.Dependencies{Cache: &mockCache{}, Fetcher: fetcher, Logger: logger}, renderer, 2)

	out, err := service.Generate(context.Background(), primaryDefinition(enricher), "http://localhost:3000")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !strings.Contains(string(out), "<rss") {
		t.Errorf("output is not RSS: %s", out)
	}

	if rendered.Len() != 2 {
		t.Fatalf("document has %d entries, want 2", rendered.Len())
	}
	if rendered.Meta.FeedURL != "http://localhost:3000/sspai" {
		t.Errorf("FeedURL = %q", rendered.Meta.FeedURL)
	}

	good := rendered.Entries[0]
	if good.Title != "Good article" || good.ID != "1" {
		t.Errorf("entries out of order: %+v", rendered.Entries)
	}
	if !strings.Contains(good.Body, "<p>Real article content.</p>") {
		t.Errorf("good body missing content: %s", good.Body)
	}
	if !strings.Contains(good.Body, `src="http://localhost:3000/image-proxy?url=https%3A%2F%2Fcdnfile.sspai.com%2Fpic.jpg"`) {
		t.Errorf("proxy link not absolutized: %s", good.Body)
	}

	broken := rendered.Entries[1]
	want := `<p>Failed to fetch full content. <a href="https://sspai.com/post/2">Read on SSPAI</a></p>`
	if broken.Body != want {
		t.Errorf("broken body = %q, want %q", broken.Body, want)
	}
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFeedFunc: func(ctx context.Context, url string) ([]byte, error) {
			return nil, &coreerrors.NetworkError{URL: url, StatusCode: 503, Attempts: 3}
		},
	}
	service := NewService(interfaces.Dependencies{Fetcher: fetcher, Logger: &mockLogger{}}, &mockRenderer{}, 0)

	_, err := service.Generate(context.Background(), primaryDefinition(&mockEnricher{}), "http://localhost:3000")

	if !coreerrors.IsGeneration(err) {
		t.Errorf("expected GenerationError, got %v", err)
	}
	if !coreerrors.IsNetwork(err) {
		t.Errorf("GenerationError should wrap the network error, got %v", err)
	}
}

func TestGenerate_RenderFailure(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFeedFunc: func(ctx context.Context, url string) ([]byte, error) {
			return []byte(twoItemFeed), nil
		},
	}
	renderer := &mockRenderer{
		renderFunc: func(doc domain.FeedDocument) ([]byte, error) {
			return nil, errors.New("xml: unsupported type")
		},
	}
	service := NewService(interfaces.Dependencies{Fetcher: fetcher, Logger: &mockLogger{}}, renderer, 0)

	_, err := service.Generate(context.Background(), primaryDefinition(&mockEnricher{}), "")

	if !coreerrors.IsGeneration(err) {
		t.Errorf("expected GenerationError, got %v", err)
	}
}

func TestGenerate_MalformedFeedYieldsEmptyDocument(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFeedFunc: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("<html>maintenance</html>"), nil
		},
	}
	var entries = -1
	renderer := &mockRenderer{
		renderFunc: func(doc domain.FeedDocument) ([]byte, error) {
			entries = doc.Len()
			return []byte("<rss/>"), nil
		},
	}
	debugLogged := false
	logger := &mockLogger{debugFunc: func(string, map[string]interface{}) { debugLogged = true }}
	service := NewService(interfaces.Dependencies{Fetcher: fetcher, Logger: logger}, renderer, 0)

	_, err := service.Generate(context.Background(), primaryDefinition(&mockEnricher{}), "")

	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if entries != 0 {
		t.Errorf("document has %d entries, want 0", entries)
	}
	if !debugLogged {
		t.Error("parse failure should be logged at debug")
	}
}

func TestGenerate_BoundedConcurrencyKeepsOrder(t *testing.T) {
	var items strings.Builder
	for i := 0; i < 25; i++ {
		items.WriteString(`<item><title>T</title><link>https://example.com/` + string(rune('a'+i)) + `</link></item>`)
	}
	feedXML := `<rss version="2.0"><channel><title>x</title>` + items.String() + `</channel></rss>`

	fetcher := &mockFetcher{
		fetchFeedFunc: func(ctx context.Context, url string) ([]byte, error) {
			return []byte(feedXML), nil
		},
	}

	var inFlight, peak int32
	enricher := &mockEnricher{
		enrichFunc: func(ctx context.Context, record domain.ArticleRecord) string {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return record.Link
		},
	}

	var rendered domain.FeedDocument
	renderer := &mockRenderer{
		renderFunc: func(doc domain.FeedDocument) ([]byte, error) {
			rendered = doc
			return []byte("<rss/>"), nil
		},
	}

	service := NewService(interfaces.Dependencies{Fetcher: fetcher, Logger: &mockLogger{}}, renderer, 4)
	if _, err := service.Generate(context.Background(), primaryDefinition(enricher), ""); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if p := atomic.LoadInt32(&peak); p > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", p)
	}
	for i, entry := range rendered.Entries {
		if entry.Body != entry.URL {
			t.Errorf("entry %d body %q does not belong to %q", i, entry.Body, entry.URL)
		}
	}
}

func TestGenerate_EnricherPanicIsAbsorbed(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFeedFunc: func(ctx context.Context, url string) ([]byte, error) {
			return []byte(twoItemFeed), nil
		},
	}
	enricher := &mockEnricher{
		enrichFunc: func(ctx context.Context, record domain.ArticleRecord) string {
			if record.GUID == "2" {
				panic("unexpected nil")
			}
			return "<p>ok</p>"
		},
	}

	var rendered domain.FeedDocument
	renderer := &mockRenderer{
		renderFunc: func(doc domain.FeedDocument) ([]byte, error) {
			rendered = doc
			return []byte("<rss/>"), nil
		},
	}
	var mu sync.Mutex
	var errorsLogged int
	logger := &mockLogger{errorFunc: func(string, map[string]interface{}) {
		mu.Lock()
		errorsLogged++
		mu.Unlock()
	}}

	service := NewService(interfaces.Dependencies{Fetcher: fetcher, Logger: logger}, renderer, 0)
	if _, err := service.Generate(context.Background(), primaryDefinition(enricher), ""); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if rendered.Entries[0].Body != "<p>ok</p>" {
		t.Errorf("healthy entry body = %q", rendered.Entries[0].Body)
	}
	if !strings.Contains(rendered.Entries[1].Body, "https://sspai.com/post/2") {
		t.Errorf("panicking entry should link to the original, got %q", rendered.Entries[1].Body)
	}
	if errorsLogged != 1 {
		t.Errorf("errors logged = %d, want 1", errorsLogged)
	}
}

func TestServe_UsesFeedNamespaceKey(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFeedFunc: func(ctx context.Context, url string) ([]byte, error) {
			return []byte(twoItemFeed), nil
		},
	}

	var gotNS interfaces.Namespace
	var gotKey string
	cache := &mockCache{
		getOrGenerateFunc: func(ctx context.Context, ns interfaces.Namespace, key string, gen interfaces.Generator) ([]byte, error) {
			gotNS, gotKey = ns, key
			return gen(ctx)
		},
	}

	service := NewService(interfaces.Dependencies{Cache: cache, Fetcher: fetcher, Logger: &mockLogger{}}, &mockRenderer{}, 0)
	out, err := service.Serve(context.Background(), primaryDefinition(&mockEnricher{}), "http://localhost:3000/")

	if err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}
	if string(out) != "<rss/>" {
		t.Errorf("Serve = %q", out)
	}
	if gotNS != interfaces.NamespaceFeed || gotKey != "full-rss-feed:http://localhost:3000" {
		t.Errorf("cache called with %s/%s", gotNS, gotKey)
	}
}

func TestSummaryEnricher(t *testing.T) {
	enricher := &SummaryEnricher{Synthesizer: &mockSynthesizer{
		synthesizeFunc: func(ctx context.Context, record domain.ArticleRecord) string {
			return "summary of " + record.Link
		},
	}}

	got := enricher.Enrich(context.Background(), domain.ArticleRecord{Link: "https://example.com"})
	if got != "summary of https://example.com" {
		t.Errorf("Enrich = %q", got)
	}
}

func TestFullTextEnricher_PassesRefererAndTimeout(t *testing.T) {
	var gotOpts interfaces.ArticleOptions
	fetcher := &mockFetcher{
		fetchArticleFunc: func(ctx context.Context, url string, opts interfaces.ArticleOptions) (string, error) {
			gotOpts = opts
			return "<html></html>", nil
		},
	}
	enricher := &FullTextEnricher{
		Fetcher: fetcher,
		Extractor: &mockExtractor{extractFunc: func(pageHTML, articleURL string) domain.ExtractionResult {
			return domain.ExtractionResult{HTML: "<p>x</p>", Rule: "main"}
		}},
		Logger:  &mockLogger{},
		Referer: "https://sspai.com/",
		Timeout: 20 * time.Second,
	}

	if got := enricher.Enrich(context.Background(), domain.ArticleRecord{Link: "https://sspai.com/post/1"}); got != "<p>x</p>" {
		t.Errorf("Enrich = %q", got)
	}
	if gotOpts.Referer != "https://sspai.com/" || gotOpts.Timeout != 20*time.Second {
		t.Errorf("unexpected options: %+v", gotOpts)
	}
}
