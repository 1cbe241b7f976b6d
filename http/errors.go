// Package http is the shared transport for the ticket and chat integrations:
// retries, replayable bodies and typed API errors.
package http

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors matched by every integration error type.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates invalid or missing authentication.
	ErrUnauthorized = errors.New("authentication failed")

	// ErrForbidden indicates the credentials lack permission.
	ErrForbidden = errors.New("permission denied")

	// ErrRateLimited indicates the service throttled the caller.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrBadRequest indicates the service rejected the request payload.
	ErrBadRequest = errors.New("bad request")

	// ErrServerError indicates a 5xx response.
	ErrServerError = errors.New("server error")
)

// APIError is a non-2xx response from an integration.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Endpoint   string
	RequestID  string

	// Body holds the start of the response body for diagnostics.
	Body string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s API error (%d) at %s [%s]: %s",
			e.Service, e.StatusCode, e.Endpoint, e.RequestID, e.Message)
	}
	return fmt.Sprintf("%s API error (%d) at %s: %s", e.Service, e.StatusCode, e.Endpoint, e.Message)
}

// Unwrap maps the status code onto a sentinel.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 400 || e.StatusCode == 422:
		return ErrBadRequest
	case e.StatusCode == 401:
		return ErrUnauthorized
	case e.StatusCode == 403:
		return ErrForbidden
	case e.StatusCode == 404:
		return ErrNotFound
	case e.StatusCode == 429:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrServerError
	}
	return nil
}

// AuthError is an authentication failure reported in a 2xx body, as chat
// APIs do.
type AuthError struct {
	Service string
	Reason  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %s", e.Service, e.Reason)
}

// Unwrap returns ErrUnauthorized.
func (e *AuthError) Unwrap() error {
	return ErrUnauthorized
}

// RateLimitError is a throttled call together with the advised wait.
type RateLimitError struct {
	Service    string
	RetryAfter time.Duration
	cause      error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limit exceeded, retry after %s", e.Service, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limit exceeded", e.Service)
}

// Unwrap returns ErrRateLimited and the underlying API error, if any.
func (e *RateLimitError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrRateLimited, e.cause}
	}
	return []error{ErrRateLimited}
}

// ValidationError is a request rejected before it was sent.
type ValidationError struct {
	Service string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s validation error on %s: %s", e.Service, e.Field, e.Message)
	}
	return fmt.Sprintf("%s validation error: %s", e.Service, e.Message)
}

// Unwrap returns ErrBadRequest.
func (e *ValidationError) Unwrap() error {
	return ErrBadRequest
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsForbidden reports whether err is a permission failure.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsRateLimited reports whether err is throttling.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerError)
}
