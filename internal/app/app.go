package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vyrodovalexey/skywatch/internal/config"
	"github.com/vyrodovalexey/skywatch/internal/health"
	"github.com/vyrodovalexey/skywatch/internal/observability"
	"github.com/vyrodovalexey/skywatch/internal/server"
)

// App holds all application components of one binary.
type App struct {
	config    *config.Config
	loader    *config.Loader
	telemetry *observability.Telemetry
	health    *health.Checker
	server    *server.Server
	logger    observability.Logger
}

// Option customizes App construction.
type Option func(*App)

// WithLoader sets the loader used by the config watcher.
func WithLoader(loader *config.Loader) Option {
	return func(a *App) {
		a.loader = loader
	}
}

// New builds telemetry from cfg and the server around it.
func New(ctx context.Context, cfg *config.Config, info BuildInfo, opts ...Option) (*App, error) {
	telemetry, err := observability.New(ctx, TelemetryConfig(cfg, info.Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	telemetry.Metrics().SetBuildInfo(info.Version, info.GitCommit, info.BuildTime)

	return NewWithTelemetry(cfg, telemetry, info, opts...), nil
}

// NewWithTelemetry builds the application around existing telemetry.
func NewWithTelemetry(cfg *config.Config, telemetry *observability.Telemetry, info BuildInfo, opts ...Option) *App {
	checker := health.NewChecker(cfg.Service.Name, info.Version)

	a := &App{
		config:    cfg,
		telemetry: telemetry,
		health:    checker,
		server:    server.New(server.ConfigFrom(cfg), telemetry, checker),
		logger:    telemetry.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Telemetry returns the process telemetry.
func (a *App) Telemetry() *observability.Telemetry {
	return a.telemetry
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Health returns the health checker.
func (a *App) Health() *health.Checker {
	return a.health
}

// Run serves until ctx is cancelled or the server fails, then shuts down.
// A non-empty configPath is watched for log level changes.
func (a *App) Run(ctx context.Context, configPath string) error {
	a.logger.Info("starting "+a.config.Service.Name,
		observability.String("environment", a.config.Service.Environment),
		observability.String("config", configPath),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(ctx)
	}()

	watcher := a.startConfigWatcher(ctx, configPath)

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	case serveErr = <-errCh:
		if serveErr != nil {
			a.logger.Error("HTTP server failed", observability.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout())
	defer cancel()

	return errors.Join(serveErr, a.shutdown(shutdownCtx, watcher))
}

// startConfigWatcher starts the configuration watcher.
func (a *App) startConfigWatcher(ctx context.Context, configPath string) *config.Watcher {
	if configPath == "" {
		return nil
	}

	watcher, err := config.NewWatcher(configPath, config.LevelReloader(a.logger),
		config.WithLogger(a.logger),
		config.WithLoader(a.loader),
	)
	if err != nil {
		a.logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		a.logger.Warn("failed to start config watcher", observability.Error(err))
		_ = watcher.Stop()
		return nil
	}

	return watcher
}

// shutdown drains the server and flushes telemetry.
func (a *App) shutdown(ctx context.Context, watcher *config.Watcher) error {
	a.health.SetDraining(true)

	if watcher != nil {
		_ = watcher.Stop()
	}

	var errs []error
	if err := a.server.Stop(ctx); err != nil {
		a.logger.Error("failed to stop HTTP server gracefully", observability.Error(err))
		errs = append(errs, err)
	}

	a.logger.Info(a.config.Service.Name + " stopped")

	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.config.Server.ShutdownTimeout.Duration(); d > 0 {
		return d
	}
	return config.DefaultShutdownTimeout
}
