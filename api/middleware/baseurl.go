// ABOUTME: Resolves the public base URL of each request
// ABOUTME: Stores scheme://host in the request context for link generation

package middleware

import (
	"context"
	"net/http"
	"strings"
)

type baseURLKey struct{}

// BaseURL returns scheme://host for r. The scheme is taken from
// X-Forwarded-Proto when present, else https for TLS connections, else http.
func BaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		scheme = strings.ToLower(strings.TrimSpace(first))
	}
	return scheme + "://" + r.Host
}

// BaseURLMiddleware records the request base URL in the context
func BaseURLMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithBaseURL(r.Context(), BaseURL(r))))
	})
}

// BaseURLFromContext returns the base URL stored by BaseURLMiddleware
func BaseURLFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(baseURLKey{}).(string); ok {
		return v
	}
	return ""
}

// WithBaseURL returns a context carrying baseURL
func WithBaseURL(ctx context.Context, baseURL string) context.Context {
	return context.WithValue(ctx, baseURLKey{}, baseURL)
}
