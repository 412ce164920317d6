// ABOUTME: Error handling utilities for API handlers
// ABOUTME: Converts domain errors to HTTP responses rendered as {"error","message"}

package handlers

import (
	"pirss-api/core/errors"

	"github.com/danielgtaylor/huma/v2"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	status  int
	Err     string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Error implements the error interface
func (e *ErrorResponse) Error() string {
	if e.Message != "" {
		return e.Err + ": " + e.Message
	}
	return e.Err
}

// GetStatus implements huma.StatusError
func (e *ErrorResponse) GetStatus() int {
	return e.status
}

// NewError builds an ErrorResponse. It replaces huma.NewError so that
// validation failures and handler errors share one body shape.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	resp := &ErrorResponse{status: status, Err: msg}
	for _, err := range errs {
		if err != nil {
			resp.Message = err.Error()
			break
		}
	}
	return resp
}

// toHumaError converts domain errors to appropriate Huma HTTP errors.
// title is the error text reported for server-side failures.
func toHumaError(err error, title string) error {
	if err == nil {
		return nil
	}

	if errors.IsValidation(err) {
		return huma.Error400BadRequest(err.Error())
	}

	// Upstream fetch and generation failures are server errors like any other
	return huma.Error500InternalServerError(title, err)
}
