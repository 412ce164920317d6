// ABOUTME: Dependencies container provides dependency injection for core services
// ABOUTME: Defines the contract for dependencies required by the core business logic

package interfaces

// Dependencies holds all external dependencies required by the core business logic
type Dependencies struct {
	// Cache provides namespaced caching
	Cache Cache

	// Fetcher provides HTTP access to upstream feeds, pages and images
	Fetcher Fetcher

	// Logger provides structured logging
	Logger Logger
}
