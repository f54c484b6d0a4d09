// Package config provides configuration types and loading for the
// skywatch services.
//
// Configuration is read from an optional YAML file decoded over
// DefaultConfig. ${VAR} and ${VAR:-default} references in the file are
// expanded from the environment, and a fixed set of environment variables
// (SKYWATCH_LISTEN_PORT, SKYWATCH_LOG_LEVEL, OTEL_EXPORTER_OTLP_ENDPOINT,
// OTEL_SERVICE_NAME, OPENSKY_BASE_URL) override file values.
//
//	cfg, err := config.NewLoader().Load("arrivals.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// A Watcher reloads the file on change. Only the log level is applied at
// runtime:
//
//	watcher, err := config.NewWatcher(path, config.LevelReloader(logger))
package config
