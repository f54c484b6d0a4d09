package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/skywatch/internal/observability"
)

const (
	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLength = 128
)

// RequestID returns a middleware that adds a request ID to each request.
func RequestID() Middleware {
	return RequestIDWithGenerator(func() string {
		return uuid.New().String()
	})
}

// RequestIDWithGenerator returns a middleware that uses a custom ID generator.
// An inbound X-Request-ID is kept when it is short printable ASCII.
func RequestIDWithGenerator(generator func() string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if !validRequestID(requestID) {
				requestID = generator()
			}

			ctx := observability.ContextWithRequestID(r.Context(), requestID)
			r = r.WithContext(ctx)

			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r)
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
