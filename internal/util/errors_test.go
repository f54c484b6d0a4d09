package util

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ConfigError
		expected string
	}{
		{
			name:     "with field",
			err:      NewConfigError("server.port", "must be positive"),
			expected: "config error at server.port: must be positive",
		},
		{
			name:     "without field",
			err:      NewConfigError("", "empty document"),
			expected: "config error: empty document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.err.Error())
			assert.True(t, errors.Is(tt.err, ErrConfigInvalid))
		})
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewConfigErrorWithCause("upstream.baseURL", "invalid", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestUpstreamError(t *testing.T) {
	t.Parallel()

	statusErr := NewUpstreamStatusError("opensky", 503)
	assert.Equal(t, "upstream opensky: status 503", statusErr.Error())
	assert.ErrorIs(t, statusErr, ErrUpstreamStatus)
	assert.NotErrorIs(t, statusErr, ErrUpstreamUnavail)

	cause := errors.New("connection refused")
	transportErr := NewUpstreamErrorWithCause("opensky", cause)
	assert.Equal(t, "upstream opensky: connection refused", transportErr.Error())
	assert.ErrorIs(t, transportErr, ErrUpstreamUnavail)
	assert.ErrorIs(t, transportErr, cause)
	assert.NotErrorIs(t, transportErr, ErrUpstreamStatus)

	payloadErr := NewUpstreamPayloadError("opensky", errors.New("unexpected EOF"))
	assert.Equal(t, "upstream opensky: upstream returned malformed payload: unexpected EOF", payloadErr.Error())
	assert.ErrorIs(t, payloadErr, ErrUpstreamPayload)
	assert.NotErrorIs(t, payloadErr, ErrUpstreamUnavail)
	assert.NotErrorIs(t, payloadErr, ErrUpstreamStatus)

	wrapped := fmt.Errorf("fetch arrivals: %w", statusErr)
	var ue *UpstreamError
	assert.True(t, errors.As(wrapped, &ue))
	assert.Equal(t, 503, ue.StatusCode)
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, WrapError(nil, "ctx"))

	err := WrapError(ErrInvalidInput, "parse")
	assert.EqualError(t, err, "parse: invalid input")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestIsTimeout(t *testing.T) {
	t.Parallel()

	assert.False(t, IsTimeout(nil))
	assert.False(t, IsTimeout(errors.New("other")))
	assert.True(t, IsTimeout(ErrTimeout))
	assert.True(t, IsTimeout(fmt.Errorf("get: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeout(NewUpstreamErrorWithCause("opensky", timeoutErr{})))
}
