// ABOUTME: Feed service generating full-text and summary feeds from upstream documents
// ABOUTME: Fetches, parses, enriches articles concurrently, assembles and renders the result

package feed

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"pirss-api/core/cache"
	"pirss-api/core/domain"
	coreerrors "pirss-api/core/errors"
	"pirss-api/core/interfaces"
)

const defaultMaxConcurrency = 10

// Definition describes one republished feed
type Definition struct {
	// ID names the feed in cache keys and logs
	ID string

	// Path is the route the feed is served under
	Path string

	// SourceURL is the upstream feed document
	SourceURL string

	SiteURL     string
	Title       string
	Description string
	Language    string
	TTLMinutes  int

	// Enricher derives each entry body
	Enricher interfaces.Enricher
}

// Meta returns the channel fields of the feed served at baseURL
func (d Definition) Meta(baseURL string, now time.Time) domain.FeedMeta {
	return domain.FeedMeta{
		Title:       d.Title,
		Description: d.Description,
		FeedURL:     strings.TrimSuffix(baseURL, "/") + d.Path,
		SiteURL:     d.SiteURL,
		Language:    d.Language,
		TTLMinutes:  d.TTLMinutes,
		Generated:   now,
	}
}

// Service generates and serves feeds
type Service struct {
	deps           interfaces.Dependencies
	renderer       interfaces.FeedRenderer
	maxConcurrency int
	now            func() time.Time
}

// NewService creates a new feed service instance
func NewService(deps interfaces.Dependencies, renderer interfaces.FeedRenderer, maxConcurrency int) *Service {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &Service{
		deps:           deps,
		renderer:       renderer,
		maxConcurrency: maxConcurrency,
		now:            time.Now,
	}
}

// Serve returns the cached document for def, generating it once on a miss
func (s *Service) Serve(ctx context.Context, def Definition, baseURL string) ([]byte, error) {
	return s.deps.Cache.GetOrGenerate(ctx, interfaces.NamespaceFeed, cache.FeedKey(def.ID, baseURL), func(ctx context.Context) ([]byte, error) {
		return s.Generate(ctx, def, baseURL)
	})
}

// Generate builds the feed document for def without consulting the feed cache.
// Only upstream feed and rendering failures fail the whole document.
func (s *Service) Generate(ctx context.Context, def Definition, baseURL string) ([]byte, error) {
	start := s.now()

	raw, err := s.deps.Fetcher.FetchFeed(ctx, def.SourceURL)
	if err != nil {
		return nil, &coreerrors.GenerationError{Feed: def.ID, Err: err}
	}

	records, err := parse(raw)
	if err != nil {
		s.deps.Logger.Debug("Upstream feed could not be parsed", map[string]interface{}{
			"feed":  def.ID,
			"url":   def.SourceURL,
			"error": err.Error(),
		})
	}

	bodies := s.enrichAll(ctx, def, records)
	if err := ctx.Err(); err != nil {
		return nil, &coreerrors.GenerationError{Feed: def.ID, Err: err}
	}

	for i := range bodies {
		bodies[i] = AbsolutizeProxyLinks(bodies[i], baseURL)
	}

	now := s.now()
	doc := Assemble(def.Meta(baseURL, now), records, bodies, now)

	out, err := s.renderer.Render(doc)
	if err != nil {
		return nil, &coreerrors.GenerationError{Feed: def.ID, Err: coreerrors.WrapError(err, "render")}
	}

	s.deps.Logger.Info("Generated feed", map[string]interface{}{
		"feed":     def.ID,
		"articles": doc.Len(),
		"duration": time.Since(start).String(),
	})

	return out, nil
}

// enrichAll derives every body concurrently, bounded by maxConcurrency.
// Results are index-addressed so upstream order is kept.
func (s *Service) enrichAll(ctx context.Context, def Definition, records []domain.ArticleRecord) []string {
	bodies := make([]string, len(records))
	if len(records) == 0 || def.Enricher == nil {
		return bodies
	}

	semaphore := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for i, record := range records {
		wg.Add(1)
		go func(index int, record domain.ArticleRecord) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			defer func() {
				if r := recover(); r != nil {
					s.deps.Logger.Error("Article enrichment panicked", map[string]interface{}{
						"feed":  def.ID,
						"url":   record.Link,
						"panic": fmt.Sprintf("%v", r),
					})
					bodies[index] = readOriginal(record)
				}
			}()

			bodies[index] = def.Enricher.Enrich(ctx, record)
		}(i, record)
	}

	wg.Wait()
	return bodies
}

func readOriginal(record domain.ArticleRecord) string {
	return fmt.Sprintf(`<p><a href="%s">Read the original article</a></p>`, html.EscapeString(record.Link))
}
