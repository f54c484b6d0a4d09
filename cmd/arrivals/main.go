// Package main is the entry point for the arrivals service, a traced proxy
// in front of the OpenSky arrivals API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/skywatch/internal/app"
	"github.com/vyrodovalexey/skywatch/internal/flights"
	"github.com/vyrodovalexey/skywatch/internal/opensky"
)

const (
	serviceName = "arrivals"

	// defaultPort is the port the service has always listened on.
	defaultPort = 5000
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := app.ParseFlags(serviceName, args)
	if err != nil {
		return err
	}

	info := app.BuildInfo{Version: version, BuildTime: buildTime, GitCommit: gitCommit}
	if flags.ShowVersion {
		app.PrintVersion(os.Stdout, serviceName, info)
		return nil
	}

	loader := app.NewLoader(app.Defaults{ServiceName: serviceName, Port: defaultPort})
	cfg, err := app.LoadConfig(loader, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, info, app.WithLoader(loader))
	if err != nil {
		return err
	}

	if err := registerRoutes(a); err != nil {
		_ = a.Telemetry().Shutdown(context.WithoutCancel(ctx))
		return err
	}

	return a.Run(ctx, flags.ConfigPath)
}

// registerRoutes mounts GET /arrivals.
func registerRoutes(a *app.App) error {
	cfg := a.Config()
	telemetry := a.Telemetry()

	client, err := opensky.NewClient(
		opensky.Config{
			BaseURL: cfg.Upstream.BaseURL,
			Timeout: cfg.Upstream.Timeout.Duration(),
		},
		opensky.WithTracerProvider(telemetry.TracerProvider()),
		opensky.WithMeterProvider(telemetry.MeterProvider()),
	)
	if err != nil {
		return fmt.Errorf("failed to create OpenSky client: %w", err)
	}

	handler, err := flights.NewHandler(flights.HandlerConfig{
		Client:        client,
		Tracer:        telemetry.TraceTracer(),
		Meter:         telemetry.Meter(flights.InstrumentationName),
		Logger:        telemetry.Logger(),
		FailurePolicy: cfg.Upstream.FailurePolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create arrivals handler: %w", err)
	}

	a.Server().Handle("/arrivals", handler.Arrivals)
	return nil
}
