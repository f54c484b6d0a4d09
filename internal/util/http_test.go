package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCapturingResponseWriter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewStatusCapturingResponseWriter(rec)

	assert.Equal(t, http.StatusOK, w.StatusCode)

	w.WriteHeader(http.StatusBadGateway)
	w.WriteHeader(http.StatusOK)
	n, err := w.Write([]byte("hello"))

	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusBadGateway, w.StatusCode)
	assert.Equal(t, 5, w.Size)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	w.Flush()
	assert.True(t, rec.Flushed)
}

func TestIsSuccessStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     int
		expected bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{300, false},
		{404, false},
		{502, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsSuccessStatus(tt.code), "status %d", tt.code)
	}
}
