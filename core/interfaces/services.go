// ABOUTME: Service interfaces for the core business logic
// ABOUTME: Defines contracts for services used throughout the application

package interfaces

import (
	"context"

	"pirss-api/core/domain"
)

// ContentExtractor locates and sanitizes the article body inside a page
type ContentExtractor interface {
	Extract(pageHTML, articleURL string) domain.ExtractionResult
}

// SummarySynthesizer builds a summary fragment for an article
type SummarySynthesizer interface {
	Synthesize(ctx context.Context, record domain.ArticleRecord) string
}

// Enricher derives the body of an output entry from an upstream record.
// Enrich never fails: faults are rendered as a fallback body.
type Enricher interface {
	Enrich(ctx context.Context, record domain.ArticleRecord) string
}

// FeedRenderer serializes an assembled feed document
type FeedRenderer interface {
	Render(doc domain.FeedDocument) ([]byte, error)
}
