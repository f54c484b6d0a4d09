// Package util provides utility functions and types for the skywatch services.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrUpstreamStatus.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., ConfigError, UpstreamError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
package util

import (
	"context"
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrTimeout          = errors.New("timeout")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrUpstreamStatus   = errors.New("upstream returned non-success status")
	ErrUpstreamPayload  = errors.New("upstream returned malformed payload")
	ErrUpstreamUnavail  = errors.New("upstream unavailable")
	ErrMissingField     = errors.New("missing required field")
	ErrMissingParameter = errors.New("missing required parameters")
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// UpstreamError describes a failed call to an upstream API.
// StatusCode is zero when no response was received.
type UpstreamError struct {
	Upstream   string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d", e.Upstream, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("upstream %s: %v", e.Upstream, e.Cause)
	}
	return fmt.Sprintf("upstream %s: request failed", e.Upstream)
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamStatus:
		return e.StatusCode != 0
	case ErrUpstreamUnavail:
		return e.StatusCode == 0 && !errors.Is(e.Cause, ErrUpstreamPayload)
	}
	_, ok := target.(*UpstreamError)
	return ok
}

// NewUpstreamStatusError creates an UpstreamError for a non-success response.
func NewUpstreamStatusError(upstream string, statusCode int) *UpstreamError {
	return &UpstreamError{Upstream: upstream, StatusCode: statusCode}
}

// NewUpstreamErrorWithCause creates an UpstreamError wrapping a transport or decode failure.
func NewUpstreamErrorWithCause(upstream string, cause error) *UpstreamError {
	return &UpstreamError{Upstream: upstream, Cause: cause}
}

// NewUpstreamPayloadError creates an UpstreamError for a response body that
// could not be decoded.
func NewUpstreamPayloadError(upstream string, cause error) *UpstreamError {
	return &UpstreamError{Upstream: upstream, Cause: fmt.Errorf("%w: %w", ErrUpstreamPayload, cause)}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsTimeout reports whether err was caused by a deadline or an explicit timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
