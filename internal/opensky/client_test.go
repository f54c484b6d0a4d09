package opensky

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/skywatch/internal/util"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second}, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	tests := []string{"", "opensky-network.org/api", "ftp://opensky-network.org"}
	for _, baseURL := range tests {
		t.Run(baseURL, func(t *testing.T) {
			t.Parallel()

			_, err := NewClient(Config{BaseURL: baseURL})
			require.Error(t, err)
			assert.ErrorIs(t, err, util.ErrConfigInvalid)
		})
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{BaseURL: "https://opensky-network.org/api/"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.Timeout())
	assert.Equal(t,
		"https://opensky-network.org/api/flights/arrival?airport=KSEA&begin=1&end=2",
		client.ArrivalsURL(ArrivalsQuery{Airport: "KSEA", Begin: "1", End: "2"}),
	)
}

func TestClient_ArrivalsURL_Encodes(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{BaseURL: "https://opensky-network.org/api"})
	require.NoError(t, err)

	got := client.ArrivalsURL(ArrivalsQuery{Airport: "K SEA&x=1", Begin: "10+00", End: "2000"})
	assert.Equal(t,
		"https://opensky-network.org/api/flights/arrival?airport=K+SEA%26x%3D1&begin=10%2B00&end=2000",
		got,
	)
}

func TestClient_Arrivals_Success(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/flights/arrival", r.URL.Path)
		assert.Equal(t, "KSEA", r.URL.Query().Get("airport"))
		assert.Equal(t, "1000", r.URL.Query().Get("begin"))
		assert.Equal(t, "2000", r.URL.Query().Get("end"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"icao24":"a1","callsign":" UAL1 ","firstSeen":1000,"lastSeen":1900,
			 "estDepartureAirport":"KSFO","estArrivalAirport":"KSEA"},
			{"icao24":"b2"}
		]`))
	})

	resp, err := client.Arrivals(context.Background(), ArrivalsQuery{Airport: "KSEA", Begin: "1000", End: "2000"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, resp.Flights, 2)

	first := resp.Flights[0]
	require.NotNil(t, first.ICAO24)
	require.NotNil(t, first.Callsign)
	assert.Equal(t, "a1", *first.ICAO24)
	assert.Equal(t, " UAL1 ", *first.Callsign)
	require.NotNil(t, first.FirstSeen)
	assert.Equal(t, int64(1000), *first.FirstSeen)
	assert.Equal(t, "KSFO", *first.EstDepartureAirport)

	assert.Nil(t, resp.Flights[1].Callsign)
}

func TestClient_Arrivals_NotFoundIsEmpty(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	resp, err := client.Arrivals(context.Background(), ArrivalsQuery{Airport: "KSEA", Begin: "1", End: "2"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, resp.Flights)
}

func TestClient_Arrivals_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantStatus  int
		wantIs      error
		wantTimeout bool
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantIs:     util.ErrUpstreamStatus,
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "begin must be before end", http.StatusBadRequest)
			},
			wantStatus: http.StatusBadRequest,
			wantIs:     util.ErrUpstreamStatus,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"icao24":`))
			},
			wantIs: util.ErrUpstreamPayload,
		},
		{
			name: "object instead of array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"flights":[]}`))
			},
			wantIs: util.ErrUpstreamPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, tt.handler)
			resp, err := client.Arrivals(context.Background(), ArrivalsQuery{Airport: "KSEA", Begin: "1", End: "2"})
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.False(t, util.IsTimeout(err))

			var upstreamErr *util.UpstreamError
			require.True(t, errors.As(err, &upstreamErr))
			assert.Equal(t, UpstreamName, upstreamErr.Upstream)
			assert.Equal(t, tt.wantStatus, upstreamErr.StatusCode)
		})
	}
}

func TestClient_Arrivals_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Arrivals(context.Background(), ArrivalsQuery{Airport: "KSEA", Begin: "1", End: "2"})
	require.Error(t, err)
	assert.True(t, util.IsTimeout(err))
	assert.ErrorIs(t, err, util.ErrUpstreamUnavail)
}

func TestClient_Arrivals_CallerCancel(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Arrivals(ctx, ArrivalsQuery{Airport: "KSEA", Begin: "1", End: "2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, util.IsTimeout(err))
}

func TestClient_Arrivals_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client, err := NewClient(Config{BaseURL: baseURL, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Arrivals(context.Background(), ArrivalsQuery{Airport: "KSEA", Begin: "1", End: "2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrUpstreamUnavail)
}

func TestClient_Arrivals_PropagatesTrace(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var traceparent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		_, _ = w.Write([]byte(`[]`))
	},
		WithTracerProvider(tp),
		WithPropagators(propagation.TraceContext{}),
	)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "arrivals")
	_, err := client.Arrivals(ctx, ArrivalsQuery{Airport: "KSEA", Begin: "1", End: "2"})
	parent.End()
	require.NoError(t, err)

	require.NotEmpty(t, traceparent)
	assert.True(t, strings.Contains(traceparent, parent.SpanContext().TraceID().String()))

	var clientSpan sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.SpanKind() == trace.SpanKindClient {
			clientSpan = s
		}
	}
	require.NotNil(t, clientSpan)
	assert.Equal(t, "GET /api/flights/arrival", clientSpan.Name())
	assert.Equal(t, parent.SpanContext().SpanID(), clientSpan.Parent().SpanID())
}
