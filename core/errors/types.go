// ABOUTME: Custom error types for the core business logic
// ABOUTME: Models fetch, extraction and generation failures for callers and HTTP mapping

package errors

import (
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by cache stores when a key is absent or expired
var ErrCacheMiss = errors.New("cache: key not found")

// NetworkError is a fetch that failed after exhausting its attempts
type NetworkError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed after %d attempt(s): status %d", e.URL, e.Attempts, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

// Unwrap returns the original cause
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UnsupportedContentTypeError is an article response whose content type is not allow-listed.
// It is never retried.
type UnsupportedContentTypeError struct {
	URL         string
	ContentType string
}

// Error implements the error interface
func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q for %s", e.ContentType, e.URL)
}

// ContentNotFoundError means no extraction rule located real article content
type ContentNotFoundError struct {
	URL string
}

// Error implements the error interface
func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("could not find article content: %s", e.URL)
}

// GenerationError is a whole-feed generation failure
type GenerationError struct {
	Feed string
	Err  error
}

// Error implements the error interface
func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate %s feed: %v", e.Feed, e.Err)
}

// Unwrap returns the underlying cause
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// IsNetwork checks if an error is a NetworkError
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsUnsupportedContentType checks if an error is an UnsupportedContentTypeError
func IsUnsupportedContentType(err error) bool {
	var ctErr *UnsupportedContentTypeError
	return errors.As(err, &ctErr)
}

// IsContentNotFound checks if an error is a ContentNotFoundError
func IsContentNotFound(err error) bool {
	var nfErr *ContentNotFoundError
	return errors.As(err, &nfErr)
}

// IsGeneration checks if an error is a GenerationError
func IsGeneration(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsCacheMiss checks if an error is a cache miss
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
