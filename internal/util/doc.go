// Package util provides utility functions and types shared by the
// skywatch services.
//
// # Context Helpers
//
// Context utilities for request-scoped data:
//
//	ctx = util.ContextWithStartTime(ctx, time.Now())
//	took := util.ElapsedTime(ctx)
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - ConfigError: configuration validation errors
//   - UpstreamError: failed calls to an upstream API
//   - Common sentinel errors: ErrInvalidInput, ErrTimeout, etc.
//
// # HTTP Utilities
//
// Response writer wrappers for status code capture:
//
//	w := util.NewStatusCapturingResponseWriter(responseWriter)
//	handler.ServeHTTP(w, r)
//	statusCode := w.StatusCode
//
// # Validation
//
// Input validation helpers for URLs, ports and ratios:
//
//	err := util.ValidateURL("https://opensky-network.org/api")
//	err := util.ValidatePort(8080)
package util
