package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
)

// OTLP exporter retry configuration defaults.
const (
	// DefaultOTLPRetryInitialInterval is the initial backoff interval for OTLP exporter retries.
	DefaultOTLPRetryInitialInterval = 1 * time.Second

	// DefaultOTLPRetryMaxInterval is the maximum backoff interval for OTLP exporter retries.
	DefaultOTLPRetryMaxInterval = 30 * time.Second

	// DefaultOTLPRetryMaxElapsedTime is the maximum total time for OTLP exporter retries.
	DefaultOTLPRetryMaxElapsedTime = 1 * time.Minute

	// DefaultOTLPTimeout is the default timeout for OTLP exporter operations.
	DefaultOTLPTimeout = 10 * time.Second

	// DefaultOTLPReconnectionPeriod is the default reconnection period for OTLP gRPC connection.
	DefaultOTLPReconnectionPeriod = 10 * time.Second

	// DefaultBatchTimeout is the maximum delay before a span batch is exported.
	DefaultBatchTimeout = 5 * time.Second

	// DefaultMaxQueueSize bounds the span queue; spans beyond it are dropped.
	DefaultMaxQueueSize = 2048

	// DefaultMaxExportBatchSize is the maximum number of spans per export.
	DefaultMaxExportBatchSize = 512
)

// TracerConfig contains tracing configuration.
type TracerConfig struct {
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	Headers      map[string]string
	SamplingRate float64
	Enabled      bool

	BatchTimeout       time.Duration
	MaxQueueSize       int
	MaxExportBatchSize int

	// Retry configuration for OTLP exporter.
	// If nil, defaults will be used.
	RetryConfig *OTLPRetryConfig
}

// OTLPRetryConfig contains retry configuration for OTLP exporter.
type OTLPRetryConfig struct {
	// Enabled indicates whether retry is enabled.
	Enabled bool

	// InitialInterval is the initial backoff interval.
	InitialInterval time.Duration

	// MaxInterval is the maximum backoff interval.
	MaxInterval time.Duration

	// MaxElapsedTime is the maximum total time for retries.
	MaxElapsedTime time.Duration
}

// Tracer wraps OpenTelemetry tracing functionality.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   TracerConfig
}

// NewTracer creates a new tracer. When tracing is disabled the tracer falls
// back to the global provider, which is a no-op unless set elsewhere.
func NewTracer(ctx context.Context, cfg TracerConfig, res *resource.Resource) (*Tracer, error) {
	if !cfg.Enabled {
		return &Tracer{
			config: cfg,
			tracer: otel.Tracer(cfg.ServiceName),
		}, nil
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(createSampler(cfg.SamplingRate)),
	}
	if res != nil {
		opts = append(opts, sdktrace.WithResource(res))
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlptracegrpc.New(ctx, buildOTLPExporterOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithSpanProcessor(newBatchProcessor(exporter, cfg)))
	}

	return NewTracerFromProvider(sdktrace.NewTracerProvider(opts...), cfg), nil
}

// NewTracerFromProvider wraps an already configured SDK provider.
func NewTracerFromProvider(provider *sdktrace.TracerProvider, cfg TracerConfig) *Tracer {
	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
		config:   cfg,
	}
}

// newBatchProcessor creates the asynchronous span processor.
func newBatchProcessor(exporter *otlptrace.Exporter, cfg TracerConfig) sdktrace.SpanProcessor {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = DefaultBatchTimeout
	}
	queueSize := cfg.MaxQueueSize
	if queueSize <= 0 {
		queueSize = DefaultMaxQueueSize
	}
	batchSize := cfg.MaxExportBatchSize
	if batchSize <= 0 || batchSize > queueSize {
		batchSize = min(DefaultMaxExportBatchSize, queueSize)
	}

	return sdktrace.NewBatchSpanProcessor(
		exporter,
		sdktrace.WithBatchTimeout(batchTimeout),
		sdktrace.WithMaxQueueSize(queueSize),
		sdktrace.WithMaxExportBatchSize(batchSize),
	)
}

// createSampler creates a sampler based on the sampling rate.
// Parent decisions are honoured so that inbound sampled traces stay sampled.
func createSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// buildOTLPExporterOptions builds OTLP gRPC exporter options with retry configuration.
func buildOTLPExporterOptions(cfg TracerConfig) []otlptracegrpc.Option {
	opts := make([]otlptracegrpc.Option, 0, 6)
	opts = append(opts,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithTimeout(DefaultOTLPTimeout),
		otlptracegrpc.WithReconnectionPeriod(DefaultOTLPReconnectionPeriod),
		otlptracegrpc.WithRetry(buildRetryConfig(cfg.RetryConfig)),
	)

	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}

	return opts
}

// buildRetryConfig builds the retry configuration for OTLP exporter.
func buildRetryConfig(cfg *OTLPRetryConfig) otlptracegrpc.RetryConfig {
	if cfg == nil {
		return otlptracegrpc.RetryConfig{
			Enabled:         true,
			InitialInterval: DefaultOTLPRetryInitialInterval,
			MaxInterval:     DefaultOTLPRetryMaxInterval,
			MaxElapsedTime:  DefaultOTLPRetryMaxElapsedTime,
		}
	}

	retryConfig := otlptracegrpc.RetryConfig{
		Enabled:         cfg.Enabled,
		InitialInterval: DefaultOTLPRetryInitialInterval,
		MaxInterval:     DefaultOTLPRetryMaxInterval,
		MaxElapsedTime:  DefaultOTLPRetryMaxElapsedTime,
	}

	if cfg.InitialInterval > 0 {
		retryConfig.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		retryConfig.MaxInterval = cfg.MaxInterval
	}
	if cfg.MaxElapsedTime > 0 {
		retryConfig.MaxElapsedTime = cfg.MaxElapsedTime
	}

	return retryConfig
}

// Provider returns the tracer provider, falling back to the global one.
func (t *Tracer) Provider() trace.TracerProvider {
	if t.provider == nil {
		return otel.GetTracerProvider()
	}
	return t.provider
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// ForceFlush exports all ended spans that have not been exported yet.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.ForceFlush(ctx)
	}
	return nil
}

// Shutdown flushes pending spans and shuts down the tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// StartSpan starts a new span.
func (t *Tracer) StartSpan(
	ctx context.Context,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// SpanFromContext returns the span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// RecordSpanError marks the span as failed and attaches err.
func RecordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GinTracing returns a gin middleware that opens a server span for every
// request, continuing any trace carried in the inbound headers.
func GinTracing(tracer *Tracer) gin.HandlerFunc {
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		r := c.Request
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		ctx, span := tracer.StartSpan(ctx, fmt.Sprintf("%s %s", r.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("url.path", r.URL.Path),
				attribute.String("user_agent.original", r.UserAgent()),
				attribute.String("server.address", r.Host),
			),
		)
		defer span.End()

		c.Request = r.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
