// ABOUTME: Wires configuration into the cache, fetcher, pipeline, scheduler and HTTP server
// ABOUTME: Owns startup and the ordered graceful shutdown of every component

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"pirss-api/api"
	"pirss-api/api/handlers"
	"pirss-api/core/cache"
	"pirss-api/core/extract"
	"pirss-api/core/feed"
	"pirss-api/core/interfaces"
	"pirss-api/core/scheduler"
	"pirss-api/core/summary"
	"pirss-api/infrastructure/cache/memory"
	"pirss-api/infrastructure/cache/redis"
	stdhttp "pirss-api/infrastructure/http/standard"
	"pirss-api/infrastructure/logger/structured"
	"pirss-api/infrastructure/render/rss"
	"pirss-api/pkg/config"
)

const shutdownTimeout = 30 * time.Second

// app is the assembled service
type app struct {
	cfg       *config.Config
	logger    interfaces.Logger
	cache     *cache.Service
	scheduler *scheduler.Scheduler
	server    *http.Server
}

// newApp builds every component from cfg
func newApp(ctx context.Context, cfg *config.Config, logger *structured.Logger) (*app, error) {
	logger.Info("Starting PiRSS", map[string]interface{}{
		"port":       cfg.Server.Port,
		"cache_type": cfg.Cache.Type,
		"scheduler":  cfg.Scheduler.Enabled,
	})

	cacheService, err := newCache(ctx, cfg, logger.With(map[string]interface{}{"component": "cache"}))
	if err != nil {
		return nil, err
	}

	fetcher := stdhttp.NewStandardHTTPClient(stdhttp.Options{
		FeedTimeout:    config.Seconds(cfg.Fetch.FeedTimeout),
		ArticleTimeout: config.Seconds(cfg.Fetch.ArticleTimeout),
		ImageTimeout:   config.Seconds(cfg.Fetch.ImageTimeout),
		MaxAttempts:    cfg.Fetch.MaxAttempts,
		BackoffBase:    time.Duration(cfg.Fetch.BackoffBaseMillis) * time.Millisecond,
		Headers: map[string]string{
			"User-Agent":      cfg.Fetch.UserAgent,
			"Accept":          cfg.Fetch.Accept,
			"Accept-Language": cfg.Fetch.AcceptLanguage,
		},
		ImageReferer: cfg.Feeds.Primary.Referer,
		Logger:       logger.With(map[string]interface{}{"component": "fetcher"}),
	})

	deps := interfaces.Dependencies{
		Cache:   cacheService,
		Fetcher: fetcher,
		Logger:  logger,
	}

	primary, secondary := definitions(cfg, deps)
	feedService := feed.NewService(deps, rss.NewRenderer(), cfg.Fetch.MaxConcurrency)

	sched := scheduler.New(feedService, primary, cacheService, logger.With(map[string]interface{}{"component": "scheduler"}), scheduler.Options{
		Enabled:  cfg.Scheduler.Enabled,
		Interval: cfg.RefreshInterval(),
		FeedTTL:  cfg.FeedTTL(),
		BaseURL:  cfg.ResolveBaseURL(),
	})

	humaAPI, router := api.NewAPIWithMiddleware(api.APIConfig{
		Logger:     logger,
		RateLimit:  cfg.RateLimit.Requests,
		RateWindow: config.Seconds(cfg.RateLimit.WindowSeconds),
	})

	handlers.NewIndexHandler(api.Title, api.Version, primary, secondary).RegisterRoutes(humaAPI)
	handlers.NewFeedHandler(feedService, primary, secondary).RegisterRoutes(humaAPI)
	handlers.NewImageHandler(deps, cfg.Feeds.CDNDomain).RegisterRoutes(humaAPI)
	handlers.NewCacheHandler(cacheService, logger, time.Now()).RegisterRoutes(humaAPI)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		// A cold feed generation fans out to every article page
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		cache:     cacheService,
		scheduler: sched,
		server:    server,
	}, nil
}

// definitions builds the primary full-text and secondary summary feeds
func definitions(cfg *config.Config, deps interfaces.Dependencies) (feed.Definition, feed.Definition) {
	p, s := cfg.Feeds.Primary, cfg.Feeds.Secondary

	extractConfig := extract.DefaultConfig()
	extractConfig.CDNDomain = cfg.Feeds.CDNDomain
	extractConfig.SourceName = p.SiteName
	extractConfig.Readability = cfg.Extract.Readability

	summaryConfig := summary.DefaultConfig()
	summaryConfig.DiscussionSite = s.SiteName
	summaryConfig.Referer = s.Referer

	primary := feed.Definition{
		ID:          p.ID,
		Path:        p.Path,
		SourceURL:   p.URL,
		SiteURL:     p.SiteURL,
		Title:       p.Title,
		Description: p.Description,
		Language:    p.Language,
		TTLMinutes:  p.TTLMinutes,
		Enricher: &feed.FullTextEnricher{
			Fetcher:    deps.Fetcher,
			Extractor:  extract.NewExtractor(extractConfig, deps.Logger),
			Logger:     deps.Logger,
			SourceName: p.SiteName,
			Referer:    p.Referer,
			Timeout:    config.Seconds(cfg.Fetch.ArticleTimeout),
		},
	}

	secondary := feed.Definition{
		ID:          s.ID,
		Path:        s.Path,
		SourceURL:   s.URL,
		SiteURL:     s.SiteURL,
		Title:       s.Title,
		Description: s.Description,
		Language:    s.Language,
		TTLMinutes:  s.TTLMinutes,
		Enricher: &feed.SummaryEnricher{
			Synthesizer: summary.NewSynthesizer(deps, summaryConfig),
		},
	}

	return primary, secondary
}

// newCache builds the namespaced cache on Redis or memory stores. Redis
// failures fall back to memory. Namespaces start empty either way.
func newCache(ctx context.Context, cfg *config.Config, logger interfaces.Logger) (*cache.Service, error) {
	ttls := map[interfaces.Namespace]time.Duration{
		interfaces.NamespaceFeed:    config.Seconds(cfg.Cache.FeedTTL),
		interfaces.NamespaceArticle: config.Seconds(cfg.Cache.ArticleTTL),
		interfaces.NamespaceImage:   config.Seconds(cfg.Cache.ImageTTL),
	}
	sweeps := map[interfaces.Namespace]time.Duration{
		interfaces.NamespaceFeed:    config.Seconds(cfg.Cache.FeedSweep),
		interfaces.NamespaceArticle: config.Seconds(cfg.Cache.ArticleSweep),
		interfaces.NamespaceImage:   config.Seconds(cfg.Cache.ImageSweep),
	}

	namespaces := make(map[interfaces.Namespace]cache.NamespaceConfig, len(ttls))
	var closer io.Closer

	if cfg.Cache.Type == "redis" {
		redisCache, err := redis.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			logger.Error("Failed to create Redis cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("Using Redis cache", map[string]interface{}{
				"address": cfg.Cache.Redis.Address,
			})
			for ns, ttl := range ttls {
				namespaces[ns] = cache.NamespaceConfig{Store: redisCache.Store(ns, ttl), TTL: ttl}
			}
			closer = redisCache
		}
	}

	if len(namespaces) == 0 {
		logger.Info("Using memory cache", nil)
		for ns, ttl := range ttls {
			namespaces[ns] = cache.NamespaceConfig{Store: memory.NewMemoryCache(ttl, sweeps[ns]), TTL: ttl}
		}
	}

	service, err := cache.NewService(cache.Options{
		Namespaces: namespaces,
		Closer:     closer,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	if err := service.Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset cache: %w", err)
	}
	return service, nil
}

// Run serves until ctx is cancelled, then shuts down the scheduler, the
// server and the cache in that order
func (a *app) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, listener)
}

// Serve is Run on an existing listener
func (a *app) Serve(ctx context.Context, listener net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", map[string]interface{}{
			"address": listener.Addr().String(),
		})
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	a.scheduler.Start(ctx)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			a.scheduler.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	return a.shutdown()
}

func (a *app) shutdown() error {
	a.logger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.scheduler.Stop()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}
	if err := a.cache.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
	}

	a.logger.Info("Server stopped", nil)
	return errors.Join(errs...)
}
