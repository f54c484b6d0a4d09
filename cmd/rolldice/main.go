// Package main is the entry point for the rolldice service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/skywatch/internal/app"
	"github.com/vyrodovalexey/skywatch/internal/dice"
)

const serviceName = "rolldice"

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

	loader := app.NewLoader(app.Defaults{ServiceName: serviceName})
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

	registerRoutes(a)

	return a.Run(ctx, flags.ConfigPath)
}

// registerRoutes mounts GET /rolldice and GET /rolldice/:player.
func registerRoutes(a *app.App) {
	handler := dice.NewHandler(dice.NewRoller(a.Config().Dice.Seed), a.Telemetry().Logger())

	a.Server().Handle("/rolldice", handler.RollDice)
	a.Server().Handle("/rolldice/:player", handler.RollDice)
}
