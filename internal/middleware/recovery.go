package middleware

import (
	"io"
	"net/http"
	"runtime/debug"

	"github.com/vyrodovalexey/skywatch/internal/observability"
)

// RecoveryOption configures the recovery middleware.
type RecoveryOption func(*recoveryOptions)

type recoveryOptions struct {
	onPanic func()
}

// WithPanicCallback registers fn to run after every recovered panic.
func WithPanicCallback(fn func()) RecoveryOption {
	return func(o *recoveryOptions) {
		o.onPanic = fn
	}
}

// Recovery returns a middleware that recovers from panics and answers 500.
func Recovery(logger observability.Logger, opts ...RecoveryOption) Middleware {
	options := &recoveryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
						panic(err)
					}

					logger.WithContext(r.Context()).Error("panic recovered",
						observability.String("path", r.URL.Path),
						observability.String("method", r.Method),
						observability.Any("error", err),
						observability.String("stack", string(debug.Stack())),
					)

					if options.onPanic != nil {
						options.onPanic()
					}

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = io.WriteString(w, `{"error":"internal server error"}`)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
