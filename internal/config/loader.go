package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/skywatch/internal/util"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// Environment variables that override file values.
const (
	EnvListenPort      = "SKYWATCH_LISTEN_PORT"
	EnvLogLevel        = "SKYWATCH_LOG_LEVEL"
	EnvOTLPEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvServiceName     = "OTEL_SERVICE_NAME"
	EnvUpstreamBaseURL = "OPENSKY_BASE_URL"
)

// LookupEnvFunc resolves an environment variable.
type LookupEnvFunc func(key string) (string, bool)

// Loader handles configuration loading from files and readers.
type Loader struct {
	defaults  func() *Config
	lookupEnv LookupEnvFunc
}

// LoaderOption is a functional option for configuring the loader.
type LoaderOption func(*Loader)

// WithDefaults sets the function producing the base configuration that the
// file is decoded over.
func WithDefaults(defaults func() *Config) LoaderOption {
	return func(l *Loader) {
		if defaults != nil {
			l.defaults = defaults
		}
	}
}

// WithLookupEnv replaces os.LookupEnv for substitution and overrides.
func WithLookupEnv(lookup LookupEnvFunc) LoaderOption {
	return func(l *Loader) {
		if lookup != nil {
			l.lookupEnv = lookup
		}
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		defaults:  DefaultConfig,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration from a file path. An empty path yields the
// defaults with environment overrides applied.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		return l.parseConfig(nil)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return l.parseConfig(data)
}

// LoadFromReader loads configuration from an io.Reader.
func (l *Loader) LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return l.parseConfig(data)
}

// parseConfig decodes YAML over the defaults and applies env overrides.
func (l *Loader) parseConfig(data []byte) (*Config, error) {
	config := l.defaults()

	content := strings.TrimSpace(l.substituteEnvVars(string(data)))
	if content != "" {
		if err := yaml.Unmarshal([]byte(content), config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, err
	}
	normalizeOTLPEndpoint(&config.Observability)

	return config, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment variable values.
func (l *Loader) substituteEnvVars(content string) string {
	// $$ escapes a literal dollar sign.
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		if value, exists := l.lookupEnv(submatches[1]); exists {
			return value
		}
		if len(submatches) >= 3 {
			return submatches[2]
		}
		return ""
	})

	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}

// applyEnvOverrides applies the well-known environment variables on top of
// the file values.
func (l *Loader) applyEnvOverrides(config *Config) error {
	if v, ok := l.nonEmptyEnv(EnvListenPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return util.NewConfigErrorWithCause("server.port",
				fmt.Sprintf("%s is not a number: %q", EnvListenPort, v), err)
		}
		config.Server.Port = port
	}
	if v, ok := l.nonEmptyEnv(EnvLogLevel); ok {
		config.Logging.Level = strings.ToLower(v)
	}
	if v, ok := l.nonEmptyEnv(EnvOTLPEndpoint); ok {
		config.Observability.OTLPEndpoint = v
	}
	if v, ok := l.nonEmptyEnv(EnvServiceName); ok {
		config.Service.Name = v
	}
	if v, ok := l.nonEmptyEnv(EnvUpstreamBaseURL); ok {
		config.Upstream.BaseURL = v
	}
	return nil
}

func (l *Loader) nonEmptyEnv(key string) (string, bool) {
	v, ok := l.lookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// normalizeOTLPEndpoint strips a URL scheme from the collector endpoint,
// which the gRPC exporters expect as host:port. The scheme decides
// transport security.
func normalizeOTLPEndpoint(obs *ObservabilityConfig) {
	switch {
	case strings.HasPrefix(obs.OTLPEndpoint, "https://"):
		obs.OTLPEndpoint = strings.TrimPrefix(obs.OTLPEndpoint, "https://")
		obs.Insecure = false
	case strings.HasPrefix(obs.OTLPEndpoint, "http://"):
		obs.OTLPEndpoint = strings.TrimPrefix(obs.OTLPEndpoint, "http://")
		obs.Insecure = true
	}
	obs.OTLPEndpoint = strings.TrimSuffix(obs.OTLPEndpoint, "/")
}
