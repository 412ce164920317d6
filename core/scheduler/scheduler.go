// ABOUTME: Background refresh of the primary feed's cached document
// ABOUTME: Primes the cache at startup and regenerates it on a fixed interval

package scheduler

import (
	"context"
	"sync"
	"time"

	"pirss-api/core/cache"
	"pirss-api/core/feed"
	"pirss-api/core/interfaces"
)

// State is the scheduler lifecycle state
type State int

const (
	// Idle means no periodic refresh is running
	Idle State = iota
	// Scheduled means the refresh ticker is running
	Scheduled
)

func (s State) String() string {
	if s == Scheduled {
		return "scheduled"
	}
	return "idle"
}

// Generator regenerates a feed document
type Generator interface {
	Generate(ctx context.Context, def feed.Definition, baseURL string) ([]byte, error)
}

// Options configures the scheduler
type Options struct {
	Enabled  bool
	Interval time.Duration
	FeedTTL  time.Duration
	BaseURL  string
}

// Scheduler refreshes one feed in the feed cache namespace
type Scheduler struct {
	generator Generator
	def       feed.Definition
	cache     interfaces.Cache
	logger    interfaces.Logger
	opts      Options

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle scheduler
func New(generator Generator, def feed.Definition, cache interfaces.Cache, logger interfaces.Logger, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = opts.FeedTTL
	}
	return &Scheduler{
		generator: generator,
		def:       def,
		cache:     cache,
		logger:    logger,
		opts:      opts,
		state:     Idle,
	}
}

// State returns the current state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TTL is the lifetime of refreshed entries, never shorter than the interval
func (s *Scheduler) TTL() time.Duration {
	if s.opts.Interval > s.opts.FeedTTL {
		return s.opts.Interval
	}
	return s.opts.FeedTTL
}

// Start primes the cache in the background and, when enabled with a base
// URL, begins periodic refresh. Calling Start twice has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	periodic := s.opts.Enabled && s.opts.BaseURL != "" && s.opts.Interval > 0
	if periodic {
		s.state = Scheduled
		s.logger.Info("Scheduling feed refresh", map[string]interface{}{
			"feed":     s.def.ID,
			"interval": s.opts.Interval.String(),
			"ttl":      s.TTL().String(),
		})
	} else if !s.opts.Enabled {
		s.logger.Info("Feed refresh disabled via config", map[string]interface{}{"feed": s.def.ID})
	} else {
		s.logger.Warn("Cannot schedule feed refresh without a service base URL", map[string]interface{}{"feed": s.def.ID})
	}

	go s.run(runCtx, periodic)
}

func (s *Scheduler) run(ctx context.Context, periodic bool) {
	defer close(s.done)

	if err := s.RefreshNow(ctx); err != nil {
		s.logger.Error("Failed to prime feed cache", map[string]interface{}{
			"feed":  s.def.ID,
			"error": err.Error(),
		})
	}

	if !periodic {
		return
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshNow(ctx); err != nil {
				s.logger.Error("Failed to refresh feed", map[string]interface{}{
					"feed":  s.def.ID,
					"error": err.Error(),
				})
			}
		}
	}
}

// RefreshNow regenerates the feed and overwrites its cache entry. On failure
// the previous entry is left in place.
func (s *Scheduler) RefreshNow(ctx context.Context) error {
	if s.opts.BaseURL == "" {
		s.logger.Warn("Skipping refresh because service base URL is not configured", map[string]interface{}{
			"feed": s.def.ID,
		})
		return nil
	}

	s.logger.Info("Refreshing feed cache", map[string]interface{}{"feed": s.def.ID})

	doc, err := s.generator.Generate(ctx, s.def, s.opts.BaseURL)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, interfaces.NamespaceFeed, cache.FeedKey(s.def.ID, s.opts.BaseURL), doc, s.TTL()); err != nil {
		return err
	}

	s.logger.Info("Feed cache updated", map[string]interface{}{"feed": s.def.ID})
	return nil
}

// Stop cancels the refresh loop and waits for it to exit
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.state = Idle
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
