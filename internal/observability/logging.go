package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger
	SetLevel(level string) error
	Zap() *zap.Logger
	Sync() error
}

// Field represents a log field.
type Field = zap.Field

// Field constructors for convenience.
var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Error    = zap.Error
	Any      = zap.Any
	Duration = zap.Duration
	Time     = zap.Time
)

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// DefaultLogConfig returns default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}
}

// LoggerOption customizes logger construction.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	writer zapcore.WriteSyncer
	extra  []zapcore.Core
}

// WithWriter sends encoded records to w instead of the configured output.
func WithWriter(w io.Writer) LoggerOption {
	return func(o *loggerOptions) {
		o.writer = zapcore.AddSync(w)
	}
}

// WithTeeCore duplicates every record into core, e.g. an OTLP log bridge.
func WithTeeCore(core zapcore.Core) LoggerOption {
	return func(o *loggerOptions) {
		if core != nil {
			o.extra = append(o.extra, core)
		}
	}
}

// zapLogger implements Logger using zap.
type zapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

var (
	globalLogger Logger
	globalMu     sync.RWMutex
)

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LogConfig, opts ...LoggerOption) (Logger, error) {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	options := &loggerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writeSyncer := options.writer
	if writeSyncer == nil {
		switch cfg.Output {
		case "stderr":
			writeSyncer = zapcore.AddSync(os.Stderr)
		default:
			writeSyncer = zapcore.AddSync(os.Stdout)
		}
	}

	atomicLevel := zap.NewAtomicLevelAt(lvl)
	core := zapcore.NewCore(encoder, writeSyncer, atomicLevel)
	if len(options.extra) > 0 {
		cores := make([]zapcore.Core, 0, len(options.extra)+1)
		cores = append(cores, core)
		for _, c := range options.extra {
			cores = append(cores, levelGate{Core: c, enabler: atomicLevel})
		}
		core = zapcore.NewTee(cores...)
	}

	return &zapLogger{
		logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		level:  atomicLevel,
	}, nil
}

// NewLoggerFromZap wraps an existing zap logger. The level of the wrapped
// logger is fixed by its core, so SetLevel has no effect on it.
func NewLoggerFromZap(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{
		logger: l.WithOptions(zap.AddCallerSkip(1)),
		level:  zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
}

// levelGate applies the runtime level to a tee'd core so that the bridge
// follows SetLevel as well.
type levelGate struct {
	zapcore.Core
	enabler zapcore.LevelEnabler
}

func (g levelGate) Enabled(l zapcore.Level) bool {
	return g.enabler.Enabled(l) && g.Core.Enabled(l)
}

func (g levelGate) With(fields []zapcore.Field) zapcore.Core {
	return levelGate{Core: g.Core.With(fields), enabler: g.enabler}
}

func (g levelGate) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if g.Enabled(ent.Level) {
		return ce.AddCore(ent, g)
	}
	return ce
}

// parseLevel parses a log level string.
func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

// Debug logs a debug message.
func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, fields...)
}

// Info logs an info message.
func (l *zapLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, fields...)
}

// Warn logs a warning message.
func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, fields...)
}

// Error logs an error message.
func (l *zapLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, fields...)
}

// Fatal logs a fatal message and exits.
func (l *zapLogger) Fatal(msg string, fields ...Field) {
	l.logger.Fatal(msg, fields...)
}

// With returns a logger with additional fields.
func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{
		logger: l.logger.With(fields...),
		level:  l.level,
	}
}

// WithContext returns a logger with context fields (request ID, trace ID, span ID).
func (l *zapLogger) WithContext(ctx context.Context) Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// SetLevel changes the minimum enabled level at runtime.
func (l *zapLogger) SetLevel(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.level.SetLevel(lvl)
	return nil
}

// Zap returns the underlying zap logger.
func (l *zapLogger) Zap() *zap.Logger {
	return l.logger.WithOptions(zap.AddCallerSkip(-1))
}

// Sync flushes any buffered log entries.
func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}

// Context keys for logging.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
)

// extractContextFields extracts logging fields from context.
func extractContextFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}

	var fields []Field

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, String("request_id", requestID))
	}

	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		fields = append(fields, String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		fields = append(fields, String("span_id", sc.SpanID().String()))
	}

	return fields
}

// ContextWithRequestID adds a request ID to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// SetGlobalLogger sets the global logger instance.
func SetGlobalLogger(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance.
func GetGlobalLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		logger, _ := NewLogger(DefaultLogConfig())
		return logger
	}
	return globalLogger
}

// NopLogger returns a logger that discards all output.
func NopLogger() Logger {
	return &zapLogger{
		logger: zap.NewNop(),
		level:  zap.NewAtomicLevel(),
	}
}
