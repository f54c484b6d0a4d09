package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vyrodovalexey/skywatch/internal/util"
)

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*util.ConfigError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates service configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a service configuration.
func ValidateConfig(config *Config) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *Config) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateService(&config.Service)
	v.validateServer(&config.Server)
	v.validateUpstream(&config.Upstream)
	v.validateLogging(&config.Logging)
	v.validateObservability(&config.Observability)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateService(svc *ServiceConfig) {
	if err := util.ValidateNonEmpty(svc.Name, "name"); err != nil {
		v.addError("service.name", err.Error())
	}
}

func (v *Validator) validateServer(srv *ServerConfig) {
	if err := util.ValidatePort(srv.Port); err != nil {
		v.addError("server.port", err.Error())
	}

	durations := map[string]Duration{
		"server.readTimeout":     srv.ReadTimeout,
		"server.writeTimeout":    srv.WriteTimeout,
		"server.idleTimeout":     srv.IdleTimeout,
		"server.shutdownTimeout": srv.ShutdownTimeout,
	}
	for path, d := range durations {
		if d < 0 {
			v.addError(path, "duration cannot be negative")
		}
	}

	if srv.MaxHeaderBytes < 0 {
		v.addError("server.maxHeaderBytes", "maxHeaderBytes cannot be negative")
	}
}

func (v *Validator) validateUpstream(up *UpstreamConfig) {
	if err := util.ValidateURL(up.BaseURL); err != nil {
		v.addError("upstream.baseURL", err.Error())
	}

	if err := util.ValidatePositiveDuration(up.Timeout.Duration()); err != nil {
		v.addError("upstream.timeout", err.Error())
	}

	if err := util.ValidateOneOf(up.FailurePolicy, "failurePolicy",
		FailurePolicySurface, FailurePolicySilent); err != nil {
		v.addError("upstream.failurePolicy", err.Error())
	}
}

func (v *Validator) validateLogging(lc *LoggingConfig) {
	validLevels := map[string]bool{
		"":      true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(lc.Level)] {
		v.addError("logging.level", fmt.Sprintf("invalid log level: %s", lc.Level))
	}

	validFormats := map[string]bool{
		"":        true,
		"json":    true,
		"console": true,
	}
	if !validFormats[strings.ToLower(lc.Format)] {
		v.addError("logging.format", fmt.Sprintf("invalid log format: %s", lc.Format))
	}

	validOutputs := map[string]bool{
		"":       true,
		"stdout": true,
		"stderr": true,
	}
	if !validOutputs[strings.ToLower(lc.Output)] {
		v.addError("logging.output", fmt.Sprintf("invalid log output: %s", lc.Output))
	}
}

func (v *Validator) validateObservability(obs *ObservabilityConfig) {
	if err := util.ValidateRatio(obs.Tracing.SamplingRate); err != nil {
		v.addError("observability.tracing.samplingRate", err.Error())
	}

	if obs.Tracing.MaxQueueSize < 0 {
		v.addError("observability.tracing.maxQueueSize", "maxQueueSize cannot be negative")
	}
	if obs.Tracing.MaxExportBatchSize < 0 {
		v.addError("observability.tracing.maxExportBatchSize", "maxExportBatchSize cannot be negative")
	}
	if obs.Tracing.MaxQueueSize > 0 && obs.Tracing.MaxExportBatchSize > obs.Tracing.MaxQueueSize {
		v.addError("observability.tracing.maxExportBatchSize", "maxExportBatchSize cannot exceed maxQueueSize")
	}

	if obs.Metrics.Path != "" && !strings.HasPrefix(obs.Metrics.Path, "/") {
		v.addError("observability.metrics.path", "metrics path must start with /")
	}
	if obs.Metrics.Interval < 0 {
		v.addError("observability.metrics.interval", "interval cannot be negative")
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, util.NewConfigError(path, message))
}

// IsValidationError reports whether err came from configuration validation.
func IsValidationError(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs)
}
