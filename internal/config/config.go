package config

import "time"

// Upstream failure policies.
const (
	// FailurePolicySurface maps upstream failures to 502/504 responses.
	FailurePolicySurface = "surface"
	// FailurePolicySilent answers 200 with an empty list on upstream failure.
	FailurePolicySilent = "silent"
)

// Default values.
const (
	DefaultServiceName     = "skywatch"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
	DefaultUpstreamBaseURL = "https://opensky-network.org/api"
	DefaultUpstreamTimeout = 10 * time.Second
	DefaultMetricsPath     = "/metrics"
)

// Config is the configuration of one skywatch service.
type Config struct {
	Service       ServiceConfig       `yaml:"service" json:"service"`
	Server        ServerConfig        `yaml:"server" json:"server"`
	Upstream      UpstreamConfig      `yaml:"upstream" json:"upstream"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
	Dice          DiceConfig          `yaml:"dice" json:"dice"`
}

// ServiceConfig identifies the service on telemetry.
type ServiceConfig struct {
	Name        string `yaml:"name" json:"name"`
	Environment string `yaml:"environment,omitempty" json:"environment,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string   `yaml:"address,omitempty" json:"address,omitempty"`
	Port            int      `yaml:"port" json:"port"`
	ReadTimeout     Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout    Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout     Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`
	MaxHeaderBytes  int      `yaml:"maxHeaderBytes,omitempty" json:"maxHeaderBytes,omitempty"`
}

// UpstreamConfig configures the OpenSky API client.
type UpstreamConfig struct {
	BaseURL       string   `yaml:"baseURL" json:"baseURL"`
	Timeout       Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	FailurePolicy string   `yaml:"failurePolicy,omitempty" json:"failurePolicy,omitempty"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// ObservabilityConfig represents telemetry export configuration.
type ObservabilityConfig struct {
	OTLPEndpoint string            `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	Insecure     bool              `yaml:"insecure" json:"insecure"`
	Headers      map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	LogExport    bool              `yaml:"logExport" json:"logExport"`
	Tracing      TracingConfig     `yaml:"tracing" json:"tracing"`
	Metrics      MetricsConfig     `yaml:"metrics" json:"metrics"`
}

// TracingConfig represents tracing configuration.
type TracingConfig struct {
	Enabled            bool     `yaml:"enabled" json:"enabled"`
	SamplingRate       float64  `yaml:"samplingRate" json:"samplingRate"`
	BatchTimeout       Duration `yaml:"batchTimeout,omitempty" json:"batchTimeout,omitempty"`
	MaxQueueSize       int      `yaml:"maxQueueSize,omitempty" json:"maxQueueSize,omitempty"`
	MaxExportBatchSize int      `yaml:"maxExportBatchSize,omitempty" json:"maxExportBatchSize,omitempty"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	Path     string   `yaml:"path,omitempty" json:"path,omitempty"`
	Interval Duration `yaml:"interval,omitempty" json:"interval,omitempty"`
}

// DiceConfig configures the dice roller. A zero seed draws from a
// time-based source.
type DiceConfig struct {
	Seed uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        DefaultServiceName,
			Environment: "development",
		},
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     Duration(DefaultReadTimeout),
			WriteTimeout:    Duration(DefaultWriteTimeout),
			IdleTimeout:     Duration(DefaultIdleTimeout),
			ShutdownTimeout: Duration(DefaultShutdownTimeout),
			MaxHeaderBytes:  DefaultMaxHeaderBytes,
		},
		Upstream: UpstreamConfig{
			BaseURL:       DefaultUpstreamBaseURL,
			Timeout:       Duration(DefaultUpstreamTimeout),
			FailurePolicy: FailurePolicySurface,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Observability: ObservabilityConfig{
			Insecure:  true,
			LogExport: true,
			Tracing: TracingConfig{
				Enabled:            true,
				SamplingRate:       1.0,
				BatchTimeout:       Duration(5 * time.Second),
				MaxQueueSize:       2048,
				MaxExportBatchSize: 512,
			},
			Metrics: MetricsConfig{
				Enabled:  true,
				Path:     DefaultMetricsPath,
				Interval: Duration(60 * time.Second),
			},
		},
	}
}
