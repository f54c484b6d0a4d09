package app

import (
	"github.com/vyrodovalexey/skywatch/internal/config"
	"github.com/vyrodovalexey/skywatch/internal/observability"
)

// Defaults are the per-binary values a config file is decoded over.
type Defaults struct {
	ServiceName string
	Port        int
}

// NewLoader returns a config loader seeded with the binary defaults.
func NewLoader(d Defaults, opts ...config.LoaderOption) *config.Loader {
	defaults := func() *config.Config {
		cfg := config.DefaultConfig()
		if d.ServiceName != "" {
			cfg.Service.Name = d.ServiceName
		}
		if d.Port != 0 {
			cfg.Server.Port = d.Port
		}
		return cfg
	}
	return config.NewLoader(append([]config.LoaderOption{config.WithDefaults(defaults)}, opts...)...)
}

// LoadConfig loads, overrides from flags and validates the configuration.
func LoadConfig(loader *config.Loader, flags Flags) (*config.Config, error) {
	cfg, err := loader.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.Logging.Format = flags.LogFormat
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TelemetryConfig maps the service configuration onto observability.Config.
func TelemetryConfig(cfg *config.Config, version string) *observability.Config {
	obs := cfg.Observability
	return &observability.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: version,
		Environment:    cfg.Service.Environment,
		Log: observability.LogConfig{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		},
		LogExportEnabled:   obs.LogExport,
		OTLPEndpoint:       obs.OTLPEndpoint,
		OTLPInsecure:       obs.Insecure,
		OTLPHeaders:        obs.Headers,
		TracingEnabled:     obs.Tracing.Enabled,
		TracingSampleRate:  obs.Tracing.SamplingRate,
		BatchTimeout:       obs.Tracing.BatchTimeout.Duration(),
		MaxQueueSize:       obs.Tracing.MaxQueueSize,
		MaxExportBatchSize: obs.Tracing.MaxExportBatchSize,
		MetricsEnabled:     obs.Metrics.Enabled,
		MetricsInterval:    obs.Metrics.Interval.Duration(),
	}
}
