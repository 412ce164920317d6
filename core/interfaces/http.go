package interfaces

import (
	"context"
	"time"

	"pirss-api/core/domain"
)

// ArticleOptions tunes a single article fetch
type ArticleOptions struct {
	// Referer overrides the default Referer header when set
	Referer string

	// Timeout overrides the article timeout when non-zero
	Timeout time.Duration
}

// Fetcher defines the network access used by the pipeline.
// Each method applies its own timeout class and retry policy.
type Fetcher interface {
	// FetchFeed retrieves an upstream syndication document.
	FetchFeed(ctx context.Context, url string) ([]byte, error)

	// FetchArticle retrieves an article page decoded to UTF-8 text.
	// Non-textual content types fail with errors.UnsupportedContentTypeError.
	FetchArticle(ctx context.Context, url string, opts ArticleOptions) (string, error)

	// FetchImage retrieves raw image bytes and their content type.
	FetchImage(ctx context.Context, url string) (*domain.ImageData, error)
}
