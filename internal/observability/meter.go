package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"google.golang.org/grpc/credentials"
)

// DefaultMetricInterval is the period between OTLP metric exports.
const DefaultMetricInterval = 60 * time.Second

// MeterConfig contains configuration for the OpenTelemetry meter provider.
type MeterConfig struct {
	Enabled      bool
	OTLPEndpoint string
	Insecure     bool
	Headers      map[string]string
	Interval     time.Duration

	// Registerer, when set, exposes the instruments through a Prometheus
	// exporter registered with it.
	Registerer prometheus.Registerer
}

// Meter owns the SDK meter provider and its readers.
type Meter struct {
	provider *sdkmetric.MeterProvider
	fallback metric.MeterProvider
}

// NewMeter creates the meter provider. A disabled config yields a no-op
// provider so instruments can still be created and incremented.
func NewMeter(ctx context.Context, cfg MeterConfig, res *resource.Resource) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{fallback: noop.NewMeterProvider()}, nil
	}

	var readers []sdkmetric.Reader

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlpmetricgrpc.New(ctx, buildOTLPMetricOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}

		interval := cfg.Interval
		if interval <= 0 {
			interval = DefaultMetricInterval
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(interval),
			sdkmetric.WithTimeout(DefaultOTLPTimeout),
		))
	}

	if cfg.Registerer != nil {
		exporter, err := otelprom.New(
			otelprom.WithRegisterer(cfg.Registerer),
			otelprom.WithoutScopeInfo(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus metric exporter: %w", err)
		}
		readers = append(readers, exporter)
	}

	return NewMeterWithReaders(res, readers...), nil
}

// NewMeterWithReaders builds a meter provider from explicit readers.
func NewMeterWithReaders(res *resource.Resource, readers ...sdkmetric.Reader) *Meter {
	opts := make([]sdkmetric.Option, 0, len(readers)+1)
	if res != nil {
		opts = append(opts, sdkmetric.WithResource(res))
	}
	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}
	return &Meter{provider: sdkmetric.NewMeterProvider(opts...)}
}

// buildOTLPMetricOptions builds OTLP gRPC metric exporter options.
func buildOTLPMetricOptions(cfg MeterConfig) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithTimeout(DefaultOTLPTimeout),
		otlpmetricgrpc.WithRetry(otlpmetricgrpc.RetryConfig{
			Enabled:         true,
			InitialInterval: DefaultOTLPRetryInitialInterval,
			MaxInterval:     DefaultOTLPRetryMaxInterval,
			MaxElapsedTime:  DefaultOTLPRetryMaxElapsedTime,
		}),
	}

	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	} else {
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
	}

	return opts
}

// Provider returns the meter provider.
func (m *Meter) Provider() metric.MeterProvider {
	if m.provider == nil {
		return m.fallback
	}
	return m.provider
}

// Meter returns a named meter.
func (m *Meter) Meter(name string) metric.Meter {
	return m.Provider().Meter(name)
}

// ForceFlush pushes pending measurements to every reader.
func (m *Meter) ForceFlush(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.ForceFlush(ctx)
}

// Shutdown flushes and stops all readers. It is safe to call more than once.
func (m *Meter) Shutdown(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	if err := m.provider.Shutdown(ctx); err != nil && !errors.Is(err, sdkmetric.ErrReaderShutdown) {
		return err
	}
	return nil
}
