// Package core contains the business logic of PiRSS.
// It is framework-agnostic: HTTP, storage and logging are reached only
// through the contracts in core/interfaces.
//
// Sub-packages:
//
// - domain: ArticleRecord, ExtractionResult, SummaryData, FeedDocument, ImageData
// - errors: typed failures with Is* helpers
// - interfaces: Fetcher, Cache, CacheStore, Logger and pipeline contracts
// - feed: upstream parsing, concurrent enrichment, assembly and serving
// - extract: rule cascade that locates and sanitizes article bodies
// - summary: lead image and paragraph summaries for link-only feeds
// - cache: namespaced cache with hit/miss stats and single-flight generation
// - scheduler: background refresh of the primary feed
//
// # Usage Example
//
//	import (
//	    "pirss-api/core/feed"
//	    "pirss-api/core/interfaces"
//	)
//
//	deps := interfaces.Dependencies{
//	    Cache:   cacheService,
//	    Fetcher: httpClient,
//	    Logger:  logger,
//	}
//
//	service := feed.NewService(deps, rss.NewRenderer(), 10)
//	doc, err := service.Serve(ctx, primary, "https://feeds.example.com")
//	if errors.IsGeneration(err) {
//	    // upstream feed unavailable
//	}
package core
