// ABOUTME: Cache-backed summary synthesizer for the secondary feed
// ABOUTME: Fetches each article page and composes a lead image with representative paragraphs

package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pirss-api/core/domain"
	"pirss-api/core/interfaces"
)

// Config holds summary thresholds and request settings
type Config struct {
	MinFirstParagraph  int
	MaxParagraphs      int
	MaxParagraphLength int

	// DiscussionSite names the site linked by the discussion link
	DiscussionSite string

	// Referer and Timeout are used when fetching article pages
	Referer string
	Timeout time.Duration
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		MinFirstParagraph:  40,
		MaxParagraphs:      3,
		MaxParagraphLength: 600,
		DiscussionSite:     "Hacker News",
		Referer:            "https://news.ycombinator.com",
		Timeout:            15 * time.Second,
	}
}

// CacheKey is the article namespace key of a summary
func CacheKey(link string) string {
	return "summary:" + link
}

// Synthesizer implements interfaces.SummarySynthesizer
type Synthesizer struct {
	deps   interfaces.Dependencies
	config Config
}

// NewSynthesizer creates a synthesizer
func NewSynthesizer(deps interfaces.Dependencies, config Config) *Synthesizer {
	defaults := DefaultConfig()
	if config.MinFirstParagraph <= 0 {
		config.MinFirstParagraph = defaults.MinFirstParagraph
	}
	if config.MaxParagraphs <= 0 {
		config.MaxParagraphs = defaults.MaxParagraphs
	}
	if config.MaxParagraphLength <= 0 {
		config.MaxParagraphLength = defaults.MaxParagraphLength
	}
	if config.DiscussionSite == "" {
		config.DiscussionSite = defaults.DiscussionSite
	}

	return &Synthesizer{
		deps:   deps,
		config: config,
	}
}

// Synthesize returns the summary body for record. Successful summaries are
// cached in the article namespace; fallbacks are not, so the next generation retries.
func (s *Synthesizer) Synthesize(ctx context.Context, record domain.ArticleRecord) (body string) {
	defer func() {
		if r := recover(); r != nil {
			s.deps.Logger.Error("Summary synthesis panicked", map[string]interface{}{
				"url":   record.Link,
				"panic": fmt.Sprintf("%v", r),
			})
			body = Fallback(record, s.config.DiscussionSite)
		}
	}()

	if strings.TrimSpace(record.Link) == "" {
		return Fallback(record, s.config.DiscussionSite)
	}

	data, err := s.deps.Cache.GetOrGenerate(ctx, interfaces.NamespaceArticle, CacheKey(record.Link), func(ctx context.Context) ([]byte, error) {
		summary, err := s.Summarize(ctx, record)
		if err != nil {
			return nil, err
		}
		return []byte(summary), nil
	})
	if err != nil {
		s.deps.Logger.Warn("Failed to enrich article", map[string]interface{}{
			"url":   record.Link,
			"error": err.Error(),
		})
		return Fallback(record, s.config.DiscussionSite)
	}

	return string(data)
}

// Summarize fetches the article page and composes its summary without caching
func (s *Synthesizer) Summarize(ctx context.Context, record domain.ArticleRecord) (string, error) {
	page, err := s.deps.Fetcher.FetchArticle(ctx, record.Link, interfaces.ArticleOptions{
		Referer: s.config.Referer,
		Timeout: s.config.Timeout,
	})
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	data := Extract(doc, record.Link, s.config)
	return Compose(record, data, s.config.DiscussionSite), nil
}
