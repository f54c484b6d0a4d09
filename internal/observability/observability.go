package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
)

// Config holds configuration for observability.
type Config struct {
	// Service information
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Logging configuration
	Log              LogConfig
	LogExportEnabled bool

	// OTLP collector shared by traces, metrics and logs. Export is
	// skipped when empty.
	OTLPEndpoint string
	OTLPInsecure bool
	OTLPHeaders  map[string]string

	// Tracing configuration
	TracingEnabled     bool
	TracingSampleRate  float64
	BatchTimeout       time.Duration
	MaxQueueSize       int
	MaxExportBatchSize int

	// Metrics configuration
	MetricsEnabled  bool
	MetricsInterval time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:        "skywatch",
		ServiceVersion:     "dev",
		Environment:        "development",
		Log:                DefaultLogConfig(),
		LogExportEnabled:   true,
		OTLPInsecure:       true,
		TracingEnabled:     true,
		TracingSampleRate:  1.0,
		BatchTimeout:       DefaultBatchTimeout,
		MaxQueueSize:       DefaultMaxQueueSize,
		MaxExportBatchSize: DefaultMaxExportBatchSize,
		MetricsEnabled:     true,
		MetricsInterval:    DefaultMetricInterval,
	}
}

// Telemetry bundles the logger, tracer, meter and Prometheus registry of one
// process. It is built once at startup and passed to every handler.
type Telemetry struct {
	config      *Config
	logger      Logger
	tracer      *Tracer
	meter       *Meter
	metrics     *Metrics
	logProvider *sdklog.LoggerProvider
}

// New builds every observability component and installs the OpenTelemetry
// globals used by instrumentation libraries.
func New(ctx context.Context, config *Config) (*Telemetry, error) {
	if config == nil {
		config = DefaultConfig()
	}

	t := &Telemetry{
		config:  config,
		metrics: NewMetrics(metricsNamespace(config.ServiceName)),
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := t.initLogging(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	t.logger.Info("initializing observability",
		String("service", config.ServiceName),
		String("version", config.ServiceVersion),
		String("environment", config.Environment),
		String("otlp_endpoint", config.OTLPEndpoint),
	)

	otel.SetLogger(diagnosticsLogger(t.logger.Zap()))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		t.logger.Warn("opentelemetry export error", Error(err))
	}))

	tracer, err := NewTracer(ctx, TracerConfig{
		ServiceName:        config.ServiceName,
		OTLPEndpoint:       config.OTLPEndpoint,
		Insecure:           config.OTLPInsecure,
		Headers:            config.OTLPHeaders,
		SamplingRate:       config.TracingSampleRate,
		Enabled:            config.TracingEnabled,
		BatchTimeout:       config.BatchTimeout,
		MaxQueueSize:       config.MaxQueueSize,
		MaxExportBatchSize: config.MaxExportBatchSize,
	}, res)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize tracing: %w", err), t.Shutdown(ctx))
	}
	t.tracer = tracer

	meter, err := NewMeter(ctx, MeterConfig{
		Enabled:      config.MetricsEnabled,
		OTLPEndpoint: config.OTLPEndpoint,
		Insecure:     config.OTLPInsecure,
		Headers:      config.OTLPHeaders,
		Interval:     config.MetricsInterval,
		Registerer:   t.metrics.Registry(),
	}, res)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize metrics: %w", err), t.Shutdown(ctx))
	}
	t.meter = meter

	if config.TracingEnabled {
		otel.SetTracerProvider(tracer.Provider())
	}
	otel.SetMeterProvider(meter.Provider())
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.logger.Info("observability initialized",
		Bool("tracing", config.TracingEnabled),
		Bool("metrics", config.MetricsEnabled),
		Bool("log_export", t.logProvider != nil),
	)

	return t, nil
}

// NewWithComponents assembles Telemetry from prebuilt parts. It does not
// touch the OpenTelemetry globals.
func NewWithComponents(logger Logger, tracer *Tracer, meter *Meter, metrics *Metrics) *Telemetry {
	if logger == nil {
		logger = NopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics("")
	}
	return &Telemetry{
		config:  DefaultConfig(),
		logger:  logger,
		tracer:  tracer,
		meter:   meter,
		metrics: metrics,
	}
}

// newResource describes the service on every exported signal.
func newResource(ctx context.Context, config *Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		attribute.String("deployment.environment.name", config.Environment),
	}
	if host, err := os.Hostname(); err == nil {
		attrs = append(attrs, semconv.ServiceInstanceID(host))
	}

	return resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithTelemetrySDK(),
	)
}

// initLogging creates the zap logger, teeing into the OTLP log pipeline
// when a collector is configured.
func (t *Telemetry) initLogging(ctx context.Context, res *resource.Resource) error {
	var opts []LoggerOption

	if t.config.LogExportEnabled && t.config.OTLPEndpoint != "" {
		exporter, err := otlploggrpc.New(ctx, buildOTLPLogOptions(t.config)...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		t.logProvider = sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		)
		opts = append(opts, WithTeeCore(otelzap.NewCore(
			t.config.ServiceName,
			otelzap.WithLoggerProvider(t.logProvider),
		)))
	}

	logger, err := NewLogger(t.config.Log, opts...)
	if err != nil {
		return err
	}

	t.logger = logger.With(
		String("service", t.config.ServiceName),
		String("version", t.config.ServiceVersion),
	)
	SetGlobalLogger(t.logger)

	return nil
}

// buildOTLPLogOptions builds OTLP gRPC log exporter options.
func buildOTLPLogOptions(config *Config) []otlploggrpc.Option {
	opts := []otlploggrpc.Option{
		otlploggrpc.WithEndpoint(config.OTLPEndpoint),
		otlploggrpc.WithTimeout(DefaultOTLPTimeout),
	}
	if config.OTLPInsecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	} else {
		opts = append(opts, otlploggrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}
	if len(config.OTLPHeaders) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(config.OTLPHeaders))
	}
	return opts
}

// diagnosticsLogger routes OpenTelemetry SDK diagnostics into zap.
func diagnosticsLogger(l *zap.Logger) logr.Logger {
	return zapr.NewLogger(l).WithName("otel")
}

// metricsNamespace turns a service name into a valid Prometheus namespace.
func metricsNamespace(serviceName string) string {
	out := make([]rune, 0, len(serviceName))
	for _, r := range serviceName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 || (out[0] >= '0' && out[0] <= '9') {
		return "skywatch"
	}
	return string(out)
}

// Logger returns the logger.
func (t *Telemetry) Logger() Logger {
	return t.logger
}

// Tracer returns the tracer wrapper.
func (t *Telemetry) Tracer() *Tracer {
	return t.tracer
}

// TraceTracer returns an OpenTelemetry tracer for handler spans.
func (t *Telemetry) TraceTracer() trace.Tracer {
	if t.tracer == nil {
		return otel.Tracer(t.config.ServiceName)
	}
	return t.tracer.Tracer()
}

// Meter returns a named OpenTelemetry meter.
func (t *Telemetry) Meter(name string) metric.Meter {
	if t.meter == nil {
		return otel.Meter(name)
	}
	return t.meter.Meter(name)
}

// TracerProvider returns the provider behind TraceTracer.
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	if t.tracer == nil {
		return otel.GetTracerProvider()
	}
	return t.tracer.Provider()
}

// MeterProvider returns the provider behind Meter.
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	if t.meter == nil {
		return otel.GetMeterProvider()
	}
	return t.meter.Provider()
}

// Metrics returns the Prometheus HTTP metrics.
func (t *Telemetry) Metrics() *Metrics {
	return t.metrics
}

// Shutdown flushes and closes every component. Errors are joined so that
// one failing exporter does not prevent the others from flushing.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.tracer != nil {
		if err := t.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer: %w", err))
		}
	}

	if t.meter != nil {
		if err := t.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter: %w", err))
		}
	}

	if t.logProvider != nil {
		if err := t.logProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown log provider: %w", err))
		}
	}

	if t.logger != nil {
		// Sync on stdout/stderr returns EINVAL on some platforms.
		if err := t.logger.Sync(); err != nil && t.config.Log.Output != "stdout" && t.config.Log.Output != "stderr" {
			errs = append(errs, fmt.Errorf("failed to sync logger: %w", err))
		}
	}

	return errors.Join(errs...)
}
