// ABOUTME: Huma API server configuration and setup
// ABOUTME: Wires CORS, logging, rate limiting and base URL middleware onto a chi router

package api

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"pirss-api/api/handlers"
	"pirss-api/api/middleware"
	"pirss-api/core/interfaces"
)

const (
	// Title is the service name reported in OpenAPI and the index
	Title = "PiRSS"
	// Version is the API version
	Version = "1.0.0"
)

// APIConfig holds configuration for the API
type APIConfig struct {
	Logger     interfaces.Logger
	RateLimit  int           // requests per window
	RateWindow time.Duration // rate limit window
}

func newRouter() chi.Router {
	router := chi.NewRouter()

	// Feeds and images are read by aggregators and browsers on any origin
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300, // Maximum value not ignored by any of major browsers
	}))

	return router
}

func newHumaConfig() huma.Config {
	config := huma.DefaultConfig(Title, Version)
	config.Info.Description = "Full-text RSS republishing with cached article extraction and an image proxy"
	// Bodies carry no "$schema" link field
	config.CreateHooks = nil
	return config
}

// NewAPI creates and configures a new Huma API instance
func NewAPI() (huma.API, chi.Router) {
	return NewAPIWithMiddleware(APIConfig{})
}

// NewAPIWithMiddleware creates a new API with middleware configured
func NewAPIWithMiddleware(cfg APIConfig) (huma.API, chi.Router) {
	// Every error body is {"error","message"}
	huma.NewError = handlers.NewError

	router := newRouter()

	if cfg.Logger != nil {
		router.Use(middleware.RequestLoggingMiddleware(cfg.Logger))
	}

	if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
		router.Use(middleware.RateLimitMiddleware(limiter))
	}

	router.Use(middleware.BaseURLMiddleware)

	// OpenAPI is served at /openapi.json and docs at /docs
	api := humachi.New(router, newHumaConfig())

	return api, router
}
