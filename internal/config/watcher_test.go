package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/skywatch/internal/observability"
)

const watchedConfigYAML = `
service:
  name: rolldice
logging:
  level: info
`

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNewWatcher_WithOptions(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, configPath, watchedConfigYAML)

	logger := observability.NopLogger()
	loader := NewLoader(WithLookupEnv(envMap(nil)))

	watcher, err := NewWatcher(configPath, func(*Config) {},
		WithDebounceDelay(200*time.Millisecond),
		WithLogger(logger),
		WithLoader(loader),
		WithErrorCallback(func(error) {}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Stop() })

	assert.Equal(t, configPath, watcher.path)
	assert.Equal(t, 200*time.Millisecond, watcher.debounceDelay)
	assert.Same(t, loader, watcher.loader)
	assert.Equal(t, logger, watcher.logger)
	assert.NotNil(t, watcher.errorCallback)
	assert.Nil(t, watcher.GetLastConfig())
}

func TestWatcher_Start_InvalidConfig(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, configPath, "upstream:\n  failurePolicy: ignore\n")

	watcher, err := NewWatcher(configPath, nil, WithLoader(NewLoader(WithLookupEnv(envMap(nil)))))
	require.NoError(t, err)

	err = watcher.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.NoError(t, watcher.Stop())
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	// Not parallel: relies on file system notifications.
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, configPath, watchedConfigYAML)

	var reloads atomic.Int32
	levels := make(chan string, 16)

	watcher, err := NewWatcher(configPath, func(cfg *Config) {
		reloads.Add(1)
		select {
		case levels <- cfg.Logging.Level:
		default:
		}
	},
		WithDebounceDelay(10*time.Millisecond),
		WithLoader(NewLoader(WithLookupEnv(envMap(nil)))),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, watcher.Start(ctx))
	defer func() { _ = watcher.Stop() }()

	require.NotNil(t, watcher.GetLastConfig())
	assert.Equal(t, "info", watcher.GetLastConfig().Logging.Level)

	writeConfig(t, configPath, "service:\n  name: rolldice\nlogging:\n  level: debug\n")

	// A truncating write may surface as more than one event.
	timeout := time.After(5 * time.Second)
	for level := ""; level != "debug"; {
		select {
		case level = <-levels:
		case <-timeout:
			t.Fatal("configuration was not reloaded")
		}
	}
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))
	assert.Equal(t, "debug", watcher.GetLastConfig().Logging.Level)
}

func TestWatcher_KeepsLastConfigOnBadReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, configPath, watchedConfigYAML)

	errs := make(chan error, 16)
	watcher, err := NewWatcher(configPath, nil,
		WithDebounceDelay(10*time.Millisecond),
		WithLoader(NewLoader(WithLookupEnv(envMap(nil)))),
		WithErrorCallback(func(err error) {
			select {
			case errs <- err:
			default:
			}
		}),
	)
	require.NoError(t, err)

	require.NoError(t, watcher.Start(context.Background()))
	defer func() { _ = watcher.Stop() }()

	writeConfig(t, configPath, "logging:\n  level: shout\n")

	select {
	case err := <-errs:
		assert.True(t, IsValidationError(err))
	case <-time.After(5 * time.Second):
		t.Fatal("reload error was not reported")
	}
	assert.Equal(t, "info", watcher.GetLastConfig().Logging.Level)
}

func TestWatcher_StartTwice(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, configPath, watchedConfigYAML)

	watcher, err := NewWatcher(configPath, nil, WithLoader(NewLoader(WithLookupEnv(envMap(nil)))))
	require.NoError(t, err)

	require.NoError(t, watcher.Start(context.Background()))
	require.NoError(t, watcher.Start(context.Background()))
	require.NoError(t, watcher.Stop())
}

func TestLevelReloader(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := observability.NewLoggerFromZap(zap.New(core))
	reload := LevelReloader(logger)

	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	reload(cfg)

	cfg.Logging.Level = "verbose"
	reload(cfg)

	cfg.Logging.Level = ""
	reload(cfg)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "log level updated", entries[0].Message)
	assert.Equal(t, "ignoring reloaded log level", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestLevelReloader_AppliesLevel(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	logger, err := observability.NewLogger(observability.LogConfig{Level: "error"}, observability.WithWriter(&buf))
	require.NoError(t, err)

	logger.Info("before")
	cfg := DefaultConfig()
	cfg.Logging.Level = "info"
	LevelReloader(logger)(cfg)
	logger.Info("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}
