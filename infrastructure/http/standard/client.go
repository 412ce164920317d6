// ABOUTME: Standard HTTP client implementation with retry logic and timeout support
// ABOUTME: Fetches feeds, article pages and images with per-class timeouts and exponential backoff

package standard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"

	"pirss-api/core/domain"
	coreerrors "pirss-api/core/errors"
	"pirss-api/core/interfaces"
)

const (
	defaultMaxAttempts = 3
	maxArticleBytes    = 10 << 20
	maxImageBytes      = 20 << 20
	maxFeedBytes       = 10 << 20
	defaultImageType   = "image/jpeg"
)

// articleContentTypes are the media types accepted for article pages
var articleContentTypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
	"text/plain":            true,
	"text/xml":              true,
	"application/xml":       true,
}

// Options configures the client
type Options struct {
	FeedTimeout    time.Duration
	ArticleTimeout time.Duration
	ImageTimeout   time.Duration

	// MaxAttempts is the attempt ceiling per fetch, including the first try
	MaxAttempts int

	// BackoffBase is multiplied by 2^attempt between attempts
	BackoffBase time.Duration

	// Headers are sent with every request
	Headers map[string]string

	// ImageReferer is sent with image fetches so hotlink-protected CDNs serve them
	ImageReferer string

	// Logger receives retry diagnostics; optional
	Logger interfaces.Logger
}

// DefaultOptions returns the production timeouts and retry policy
func DefaultOptions() Options {
	return Options{
		FeedTimeout:    30 * time.Second,
		ArticleTimeout: 20 * time.Second,
		ImageTimeout:   15 * time.Second,
		MaxAttempts:    defaultMaxAttempts,
		BackoffBase:    time.Second,
		Headers:        map[string]string{},
	}
}

// StandardHTTPClient implements the Fetcher interface using the standard library transport
type StandardHTTPClient struct {
	client *http.Client
	opts   Options
}

// NewStandardHTTPClient creates a new HTTP client with the given options
func NewStandardHTTPClient(opts Options) *StandardHTTPClient {
	defaults := DefaultOptions()
	if opts.FeedTimeout <= 0 {
		opts.FeedTimeout = defaults.FeedTimeout
	}
	if opts.ArticleTimeout <= 0 {
		opts.ArticleTimeout = defaults.ArticleTimeout
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = defaults.ImageTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaults.MaxAttempts
	}
	if opts.BackoffBase < 0 {
		opts.BackoffBase = 0
	}
	if opts.Headers == nil {
		opts.Headers = map[string]string{}
	}

	return &StandardHTTPClient{
		// Timeouts are applied per attempt through the request context
		client: &http.Client{},
		opts:   opts,
	}
}

// FetchFeed retrieves an upstream feed document
func (c *StandardHTTPClient) FetchFeed(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url, c.opts.FeedTimeout, nil, maxFeedBytes, nil)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// FetchArticle retrieves an article page and decodes it to UTF-8
func (c *StandardHTTPClient) FetchArticle(ctx context.Context, url string, opts interfaces.ArticleOptions) (string, error) {
	timeout := c.opts.ArticleTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	var headers map[string]string
	if opts.Referer != "" {
		headers = map[string]string{"Referer": opts.Referer}
	}

	resp, err := c.get(ctx, url, timeout, headers, maxArticleBytes, func(contentType string) error {
		if contentType == "" || articleContentTypes[mediaType(contentType)] {
			return nil
		}
		return &coreerrors.UnsupportedContentTypeError{URL: url, ContentType: contentType}
	})
	if err != nil {
		return "", err
	}

	return decodeBody(resp.body, resp.contentType), nil
}

// FetchImage retrieves raw image bytes. Images are fetched once, without retry.
func (c *StandardHTTPClient) FetchImage(ctx context.Context, url string) (*domain.ImageData, error) {
	var headers map[string]string
	if c.opts.ImageReferer != "" {
		headers = map[string]string{"Referer": c.opts.ImageReferer}
	}

	resp, err := c.attempt(ctx, url, c.opts.ImageTimeout, headers, maxImageBytes, nil)
	if err != nil {
		return nil, &coreerrors.NetworkError{URL: url, StatusCode: resp.statusOrZero(), Attempts: 1, Err: err}
	}

	contentType := resp.contentType
	if contentType == "" {
		contentType = defaultImageType
	}

	return &domain.ImageData{
		ContentType: contentType,
		Data:        resp.body,
	}, nil
}

// fetched is a fully read response
type fetched struct {
	status      int
	contentType string
	body        []byte
}

func (f *fetched) statusOrZero() int {
	if f == nil {
		return 0
	}
	return f.status
}

// retryableError marks attempt failures worth another try
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// get performs a GET with retry and exponential backoff
func (c *StandardHTTPClient) get(ctx context.Context, url string, timeout time.Duration, headers map[string]string, limit int64, accept func(string) error) (*fetched, error) {
	var lastErr error
	var lastResp *fetched

	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: base, 2*base, 4*base...
			backoff := c.opts.BackoffBase * time.Duration(1<<(attempt-1))
			if c.opts.Logger != nil {
				c.opts.Logger.Debug("Retrying fetch", map[string]interface{}{
					"url":     url,
					"attempt": attempt + 1,
					"of":      c.opts.MaxAttempts,
					"backoff": backoff.String(),
					"error":   lastErr.Error(),
				})
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, &coreerrors.NetworkError{URL: url, Attempts: attempt, Err: ctx.Err()}
			}
		}

		resp, err := c.attempt(ctx, url, timeout, headers, limit, accept)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		lastResp = resp

		var retryable *retryableError
		if !errors.As(err, &retryable) {
			if coreerrors.IsUnsupportedContentType(err) {
				return nil, err
			}
			return nil, &coreerrors.NetworkError{URL: url, StatusCode: resp.statusOrZero(), Attempts: attempt + 1, Err: err}
		}
	}

	return nil, &coreerrors.NetworkError{
		URL:        url,
		StatusCode: lastResp.statusOrZero(),
		Attempts:   c.opts.MaxAttempts,
		Err:        unwrapRetryable(lastErr),
	}
}

// attempt performs a single request and reads the body within the timeout
func (c *StandardHTTPClient) attempt(ctx context.Context, url string, timeout time.Duration, headers map[string]string, limit int64, accept func(string) error) (*fetched, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &retryableError{err: err}
	}
	defer resp.Body.Close()

	result := &fetched{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
	}

	// Retry on 5xx and 429, fail fast on other non-2xx
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("server returned %d", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return result, &retryableError{err: statusErr}
		}
		return result, statusErr
	}

	if accept != nil {
		if err := accept(result.contentType); err != nil {
			return result, err
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return result, &retryableError{err: err}
	}
	result.body = body

	return result, nil
}

func unwrapRetryable(err error) error {
	if r, ok := err.(*retryableError); ok {
		return r.err
	}
	return err
}

// mediaType returns the lowercased media type of a Content-Type header
func mediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// decodeBody converts body to UTF-8 using the declared charset.
// iso-8859-1 is decoded as true Latin-1, unknown labels fall back to UTF-8.
func decodeBody(body []byte, contentType string) string {
	label := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		label = strings.ToLower(strings.TrimSpace(params["charset"]))
	}

	switch label {
	case "", "utf-8", "utf8":
		return toValidUTF8(body)
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1", "l1":
		if out, err := charmap.ISO8859_1.NewDecoder().Bytes(body); err == nil {
			return string(out)
		}
		return toValidUTF8(body)
	}

	enc, _ := charset.Lookup(label)
	if enc == nil {
		return toValidUTF8(body)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return toValidUTF8(body)
	}
	return string(out)
}

func toValidUTF8(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	return strings.ToValidUTF8(string(body), "�")
}
