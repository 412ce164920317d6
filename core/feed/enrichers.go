// ABOUTME: Per-article enrichers for the full-text and summary feeds
// ABOUTME: Enrichers absorb their own failures and always return a body

package feed

import (
	"context"
	"fmt"
	"html"
	"time"

	"pirss-api/core/domain"
	"pirss-api/core/interfaces"
)

// FullTextEnricher replaces each entry body with the extracted article content
type FullTextEnricher struct {
	Fetcher    interfaces.Fetcher
	Extractor  interfaces.ContentExtractor
	Logger     interfaces.Logger
	SourceName string
	Referer    string
	Timeout    time.Duration
}

// Enrich fetches the article page and extracts its body
func (e *FullTextEnricher) Enrich(ctx context.Context, record domain.ArticleRecord) string {
	if !record.IsValid() {
		return e.fetchFailed(record)
	}

	e.Logger.Debug("Scraping article", map[string]interface{}{
		"title": record.Title,
		"url":   record.Link,
	})

	page, err := e.Fetcher.FetchArticle(ctx, record.Link, interfaces.ArticleOptions{
		Referer: e.Referer,
		Timeout: e.Timeout,
	})
	if err != nil {
		e.Logger.Warn("Failed to fetch article", map[string]interface{}{
			"url":   record.Link,
			"error": err.Error(),
		})
		return e.fetchFailed(record)
	}

	return e.Extractor.Extract(page, record.Link).HTML
}

func (e *FullTextEnricher) fetchFailed(record domain.ArticleRecord) string {
	return fmt.Sprintf(`<p>Failed to fetch full content. <a href="%s">Read on %s</a></p>`,
		html.EscapeString(record.Link), html.EscapeString(e.SourceName))
}

// SummaryEnricher replaces each entry body with a synthesized summary
type SummaryEnricher struct {
	Synthesizer interfaces.SummarySynthesizer
}

// Enrich returns the summary of the article
func (e *SummaryEnricher) Enrich(ctx context.Context, record domain.ArticleRecord) string {
	return e.Synthesizer.Synthesize(ctx, record)
}
