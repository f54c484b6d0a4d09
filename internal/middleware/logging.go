package middleware

import (
	"net/http"
	"time"

	"github.com/vyrodovalexey/skywatch/internal/observability"
	"github.com/vyrodovalexey/skywatch/internal/util"
)

// Logging returns a middleware that logs one record per HTTP request.
func Logging(logger observability.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(util.ContextWithStartTime(r.Context(), time.Now()))
			rw := util.NewStatusCapturingResponseWriter(w)

			next.ServeHTTP(rw, r)

			//nolint:contextcheck // request context carries the request ID
			logger.WithContext(r.Context()).Info("http request",
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("query", r.URL.RawQuery),
				observability.Int("status", rw.StatusCode),
				observability.Int("size", rw.Size),
				observability.Duration("duration", util.ElapsedTime(r.Context())),
				observability.String("remote_addr", r.RemoteAddr),
				observability.String("user_agent", r.UserAgent()),
			)
		})
	}
}
