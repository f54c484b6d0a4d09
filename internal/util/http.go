package util

import (
	"net/http"
)

// StatusCapturingResponseWriter wraps http.ResponseWriter to track status code and size.
type StatusCapturingResponseWriter struct {
	http.ResponseWriter
	StatusCode    int
	Size          int
	HeaderWritten bool
}

// NewStatusCapturingResponseWriter creates a new StatusCapturingResponseWriter
// wrapping the provided http.ResponseWriter with a default status of 200 OK.
func NewStatusCapturingResponseWriter(w http.ResponseWriter) *StatusCapturingResponseWriter {
	return &StatusCapturingResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code and writes it to the underlying ResponseWriter.
func (w *StatusCapturingResponseWriter) WriteHeader(code int) {
	if w.HeaderWritten {
		return
	}
	w.StatusCode = code
	w.HeaderWritten = true
	w.ResponseWriter.WriteHeader(code)
}

// Write writes data to the underlying ResponseWriter and marks header as written.
func (w *StatusCapturingResponseWriter) Write(b []byte) (int, error) {
	if !w.HeaderWritten {
		w.HeaderWritten = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.Size += n
	return n, err
}

// Flush implements http.Flusher interface for streaming support.
func (w *StatusCapturingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// IsSuccessStatus reports whether code is in the 2xx range.
func IsSuccessStatus(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

// Compile-time interface assertion.
var _ http.Flusher = (*StatusCapturingResponseWriter)(nil)
