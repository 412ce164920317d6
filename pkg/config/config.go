// ABOUTME: Configuration management for the application with environment variable support
// ABOUTME: Defaults are overlaid by an optional YAML file and then by environment variables

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig `yaml:"server"`

	// Feeds describes the upstream feeds and the image CDN
	Feeds FeedsConfig `yaml:"feeds"`

	// Cache contains cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Scheduler controls proactive refresh of the primary feed
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Fetch contains upstream HTTP settings
	Fetch FetchConfig `yaml:"fetch"`

	// Extract toggles optional extraction rules
	Extract ExtractConfig `yaml:"extract"`

	// RateLimit contains per-IP request limiting
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Log contains logger settings
	Log LogConfig `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string `yaml:"port"`

	// Host is the listen address
	Host string `yaml:"host"`

	// BaseURL is the public URL used to build proxy links for scheduled refreshes
	BaseURL string `yaml:"base_url"`
}

// FeedSource describes one upstream feed and how it is republished
type FeedSource struct {
	ID          string `yaml:"id"`
	Path        string `yaml:"path"`
	URL         string `yaml:"url"`
	SiteURL     string `yaml:"site_url"`
	SiteName    string `yaml:"site_name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Referer     string `yaml:"referer"`
	TTLMinutes  int    `yaml:"ttl_minutes"`
}

// FeedsConfig holds both republished feeds
type FeedsConfig struct {
	Primary   FeedSource `yaml:"primary"`
	Secondary FeedSource `yaml:"secondary"`

	// CDNDomain is the only image host the proxy serves
	CDNDomain string `yaml:"cdn_domain"`
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type specifies the cache backend (redis/memory)
	Type string `yaml:"type"`

	// TTLs and sweep intervals in seconds
	FeedTTL      int `yaml:"feed_ttl"`
	ArticleTTL   int `yaml:"article_ttl"`
	ImageTTL     int `yaml:"image_ttl"`
	FeedSweep    int `yaml:"feed_sweep"`
	ArticleSweep int `yaml:"article_sweep"`
	ImageSweep   int `yaml:"image_sweep"`

	// Redis contains Redis-specific configuration
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string `yaml:"address"`

	// Password is the Redis authentication password
	Password string `yaml:"password"`

	// DB is the Redis database number
	DB int `yaml:"db"`
}

// SchedulerConfig holds refresh scheduler configuration
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`

	// IntervalMinutes defaults to the feed TTL when zero
	IntervalMinutes int `yaml:"interval_minutes"`
}

// FetchConfig holds upstream request configuration
type FetchConfig struct {
	// Timeouts in seconds per request class
	FeedTimeout    int `yaml:"feed_timeout"`
	ArticleTimeout int `yaml:"article_timeout"`
	ImageTimeout   int `yaml:"image_timeout"`

	MaxAttempts       int    `yaml:"max_attempts"`
	BackoffBaseMillis int    `yaml:"backoff_base_ms"`
	UserAgent         string `yaml:"user_agent"`
	Accept            string `yaml:"accept"`
	AcceptLanguage    string `yaml:"accept_language"`

	// MaxConcurrency bounds per-feed article fan-out
	MaxConcurrency int `yaml:"max_concurrency"`
}

// ExtractConfig holds content extraction toggles
type ExtractConfig struct {
	Readability bool `yaml:"readability"`
}

// RateLimitConfig holds per-IP rate limiting
type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3000",
			Host: "0.0.0.0",
		},
		Feeds: FeedsConfig{
			Primary: FeedSource{
				ID:          "full-rss-feed",
				Path:        "/sspai",
				URL:         "https://sspai.com/feed",
				SiteURL:     "https://sspai.com",
				SiteName:    "SSPAI",
				Title:       "SSPAI (少数派) - Full Text Feed",
				Description: "Full-text RSS feed for SSPAI articles with image proxy",
				Language:    "zh-CN",
				Referer:     "https://sspai.com/",
				TTLMinutes:  30,
			},
			Secondary: FeedSource{
				ID:          "hacker-news-feed",
				Path:        "/ycombinator",
				URL:         "https://news.ycombinator.com/rss",
				SiteURL:     "https://news.ycombinator.com",
				SiteName:    "Hacker News",
				Title:       "Hacker News - Beautified Feed",
				Description: "Beautified summaries with lead images for Hacker News stories",
				Language:    "en-US",
				Referer:     "https://news.ycombinator.com",
				TTLMinutes:  15,
			},
			CDNDomain: "cdnfile.sspai.com",
		},
		Cache: CacheConfig{
			Type:         "memory",
			FeedTTL:      1800,
			ArticleTTL:   3600,
			ImageTTL:     86400,
			FeedSweep:    120,
			ArticleSweep: 300,
			ImageSweep:   600,
			Redis: RedisConfig{
				Address: "localhost:6379",
			},
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
		Fetch: FetchConfig{
			FeedTimeout:       30,
			ArticleTimeout:    20,
			ImageTimeout:      15,
			MaxAttempts:       3,
			BackoffBaseMillis: 1000,
			UserAgent:         defaultUserAgent,
			Accept:            "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			AcceptLanguage:    "zh-CN,zh;q=0.9,en;q=0.8",
			MaxConcurrency:    10,
		},
		Extract: ExtractConfig{
			Readability: true,
		},
		RateLimit: RateLimitConfig{
			Requests:      100,
			WindowSeconds: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// Load reads the optional YAML file at path and applies environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides fields whose environment variable is set
func (c *Config) applyEnv() {
	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Server.Host = getEnvOrDefault("HOST", c.Server.Host)
	c.Server.BaseURL = getEnvOrDefault("SERVICE_BASE_URL", c.Server.BaseURL)

	c.Feeds.Primary.URL = getEnvOrDefault("PRIMARY_FEED_URL", c.Feeds.Primary.URL)
	c.Feeds.Primary.Path = getEnvOrDefault("PRIMARY_FEED_PATH", c.Feeds.Primary.Path)
	c.Feeds.Secondary.URL = getEnvOrDefault("SECONDARY_FEED_URL", c.Feeds.Secondary.URL)
	c.Feeds.Secondary.Path = getEnvOrDefault("SECONDARY_FEED_PATH", c.Feeds.Secondary.Path)
	c.Feeds.CDNDomain = getEnvOrDefault("CDN_DOMAIN", c.Feeds.CDNDomain)

	c.Cache.Type = getEnvOrDefault("CACHE_TYPE", c.Cache.Type)
	c.Cache.FeedTTL = getEnvAsIntOrDefault("CACHE_FEED_TTL", c.Cache.FeedTTL)
	c.Cache.ArticleTTL = getEnvAsIntOrDefault("CACHE_ARTICLE_TTL", c.Cache.ArticleTTL)
	c.Cache.ImageTTL = getEnvAsIntOrDefault("CACHE_IMAGE_TTL", c.Cache.ImageTTL)
	c.Cache.Redis.Address = getEnvOrDefault("REDIS_ADDRESS", c.Cache.Redis.Address)
	c.Cache.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Cache.Redis.DB = getEnvAsIntOrDefault("REDIS_DB", c.Cache.Redis.DB)

	c.Scheduler.Enabled = getEnvAsBoolOrDefault("FEED_REFRESH_ENABLED", c.Scheduler.Enabled)
	c.Scheduler.IntervalMinutes = getEnvAsIntOrDefault("FEED_REFRESH_INTERVAL_MINUTES", c.Scheduler.IntervalMinutes)

	c.Fetch.MaxAttempts = getEnvAsIntOrDefault("FETCH_MAX_ATTEMPTS", c.Fetch.MaxAttempts)
	c.Fetch.MaxConcurrency = getEnvAsIntOrDefault("FETCH_MAX_CONCURRENCY", c.Fetch.MaxConcurrency)
	c.Fetch.UserAgent = getEnvOrDefault("FETCH_USER_AGENT", c.Fetch.UserAgent)

	c.Extract.Readability = getEnvAsBoolOrDefault("EXTRACT_READABILITY", c.Extract.Readability)

	c.RateLimit.Requests = getEnvAsIntOrDefault("RATE_LIMIT_REQUESTS", c.RateLimit.Requests)
	c.RateLimit.WindowSeconds = getEnvAsIntOrDefault("RATE_LIMIT_WINDOW", c.RateLimit.WindowSeconds)

	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("LOG_FORMAT", c.Log.Format)
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault returns the environment variable as bool or a default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}

	if c.Cache.Type != "redis" && c.Cache.Type != "memory" {
		return errors.New("cache type must be 'redis' or 'memory'")
	}

	if c.Cache.Type == "redis" && c.Cache.Redis.Address == "" {
		return errors.New("redis address cannot be empty when using redis cache")
	}

	if c.Cache.FeedTTL < 1 || c.Cache.ArticleTTL < 1 || c.Cache.ImageTTL < 1 {
		return errors.New("cache TTLs must be at least 1 second")
	}

	if c.Feeds.CDNDomain == "" {
		return errors.New("cdn domain cannot be empty")
	}

	for name, source := range map[string]FeedSource{"primary": c.Feeds.Primary, "secondary": c.Feeds.Secondary} {
		parsed, err := url.Parse(source.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s feed url is invalid: %q", name, source.URL)
		}
		if !strings.HasPrefix(source.Path, "/") {
			return fmt.Errorf("%s feed path must start with '/'", name)
		}
	}

	if c.Feeds.Primary.Path == c.Feeds.Secondary.Path {
		return errors.New("primary and secondary feed paths must differ")
	}

	if c.Scheduler.IntervalMinutes < 0 {
		return errors.New("refresh interval cannot be negative")
	}

	if c.Fetch.MaxAttempts < 1 {
		return errors.New("fetch attempts must be at least 1")
	}

	return nil
}

// FeedTTL returns the feed namespace TTL
func (c *Config) FeedTTL() time.Duration {
	return time.Duration(c.Cache.FeedTTL) * time.Second
}

// RefreshInterval returns the scheduler period, tied to the feed TTL by default
func (c *Config) RefreshInterval() time.Duration {
	if c.Scheduler.IntervalMinutes > 0 {
		return time.Duration(c.Scheduler.IntervalMinutes) * time.Minute
	}
	return c.FeedTTL()
}

// ResolveBaseURL returns the public service URL used outside request scope
func (c *Config) ResolveBaseURL() string {
	if c.Server.BaseURL != "" {
		return strings.TrimRight(c.Server.BaseURL, "/")
	}

	host := c.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%s", host, c.Server.Port)
}

// Seconds converts a seconds setting to a duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
