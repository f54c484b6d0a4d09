package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/skywatch/internal/util"
)

// UpstreamName identifies OpenSky in errors and telemetry.
const UpstreamName = "opensky"

const (
	arrivalsPath = "/flights/arrival"

	// DefaultTimeout bounds one upstream call.
	DefaultTimeout = 10 * time.Second

	// maxErrorBodyBytes is how much of a failed response is drained so the
	// connection can be reused.
	maxErrorBodyBytes = 64 << 10
)

// Config configures the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Option customizes the client.
type Option func(*options)

type options struct {
	transport      http.RoundTripper
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	propagators    propagation.TextMapPropagator
}

// WithTransport sets the base transport wrapped by the instrumentation.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithTracerProvider sets the provider for client spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider sets the provider for client request metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithPropagators sets the propagator that injects trace context into
// outbound headers.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(o *options) {
		o.propagators = p
	}
}

// Client calls the OpenSky REST API.
type Client struct {
	baseURL    *url.URL
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := util.ValidateURL(cfg.BaseURL); err != nil {
		return nil, util.NewConfigErrorWithCause("upstream.baseURL", "invalid OpenSky base URL", err)
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, util.NewConfigErrorWithCause("upstream.baseURL", "invalid OpenSky base URL", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.transport == nil {
		o.transport = newTransport()
	}

	instrOpts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}
	if o.tracerProvider != nil {
		instrOpts = append(instrOpts, otelhttp.WithTracerProvider(o.tracerProvider))
	}
	if o.meterProvider != nil {
		instrOpts = append(instrOpts, otelhttp.WithMeterProvider(o.meterProvider))
	}
	if o.propagators != nil {
		instrOpts = append(instrOpts, otelhttp.WithPropagators(o.propagators))
	}

	return &Client{
		baseURL: base,
		timeout: timeout,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(o.transport, instrOpts...),
		},
	}, nil
}

// newTransport returns a pooled transport for a single upstream host.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// ArrivalsURL returns the request URL for q with every parameter
// query-encoded.
func (c *Client) ArrivalsURL(q ArrivalsQuery) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + arrivalsPath
	u.RawQuery = q.Values().Encode()
	return u.String()
}

// Arrivals fetches the flights that arrived at q.Airport. The call is
// bounded by ctx and the client timeout. Failures are *util.UpstreamError.
func (c *Client) Arrivals(ctx context.Context, q ArrivalsQuery) (*ArrivalsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ArrivalsURL(q), http.NoBody)
	if err != nil {
		return nil, util.NewUpstreamErrorWithCause(UpstreamName, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.NewUpstreamErrorWithCause(UpstreamName, err)
	}
	defer resp.Body.Close()

	// OpenSky answers 404 when no flight matches the window.
	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &ArrivalsResponse{StatusCode: resp.StatusCode}, nil
	}

	if !util.IsSuccessStatus(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, util.NewUpstreamStatusError(UpstreamName, resp.StatusCode)
	}

	var flights []Flight
	if err := json.NewDecoder(resp.Body).Decode(&flights); err != nil {
		if ctx.Err() != nil {
			return nil, util.NewUpstreamErrorWithCause(UpstreamName, fmt.Errorf("reading response: %w", ctx.Err()))
		}
		return nil, util.NewUpstreamPayloadError(UpstreamName, err)
	}

	return &ArrivalsResponse{
		StatusCode: resp.StatusCode,
		Flights:    flights,
	}, nil
}
