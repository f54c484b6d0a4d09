package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vyrodovalexey/skywatch/internal/observability"
)

// ConfigCallback receives every successfully reloaded configuration.
type ConfigCallback func(*Config)

// ErrorCallback is called when an error occurs during config reload.
type ErrorCallback func(error)

// Watcher watches the configuration file and reloads it on change.
// The file's directory is watched so editors that replace the file
// atomically are still observed.
type Watcher struct {
	path          string
	loader        *Loader
	watcher       *fsnotify.Watcher
	callback      ConfigCallback
	errorCallback ErrorCallback
	logger        observability.Logger
	debounceDelay time.Duration
	lastConfig    *Config
	mu            sync.RWMutex
	stopCh        chan struct{}
	stoppedCh     chan struct{}
	running       bool
}

// WatcherOption is a functional option for configuring the watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay for file changes.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = delay
	}
}

// WithLogger sets the logger for the watcher.
func WithLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithErrorCallback sets the error callback for the watcher.
func WithErrorCallback(callback ErrorCallback) WatcherOption {
	return func(w *Watcher) {
		w.errorCallback = callback
	}
}

// WithLoader sets the loader used for reloads, so reloaded files get the
// same defaults and overrides as the initial load.
func WithLoader(loader *Loader) WatcherOption {
	return func(w *Watcher) {
		if loader != nil {
			w.loader = loader
		}
	}
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(path string, callback ConfigCallback, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:          absPath,
		loader:        NewLoader(),
		watcher:       fsWatcher,
		callback:      callback,
		debounceDelay: 100 * time.Millisecond,
		logger:        observability.NopLogger(),
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Start loads the file once and begins watching it.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	config, err := w.load()
	if err != nil {
		return err
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.mu.Lock()
	w.lastConfig = config
	w.running = true
	w.mu.Unlock()

	w.logger.Info("started watching configuration file",
		observability.String("path", w.path),
	)

	go w.watch(ctx)

	return nil
}

// Stop stops watching the configuration file.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh

	return w.watcher.Close()
}

// GetLastConfig returns the last successfully loaded configuration.
func (w *Watcher) GetLastConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastConfig
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stoppedCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped due to context cancellation")
			return

		case <-w.stopCh:
			w.logger.Info("config watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			debounceTimer, debounceCh = w.handleFileEvent(event, debounceTimer, debounceCh)

		case <-debounceCh:
			debounceCh = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.handleWatchError(err)
		}
	}
}

// handleFileEvent restarts the debounce timer for writes to the watched file.
func (w *Watcher) handleFileEvent(
	event fsnotify.Event,
	debounceTimer *time.Timer,
	debounceCh <-chan time.Time,
) (timer *time.Timer, ch <-chan time.Time) {
	if filepath.Clean(event.Name) != w.path {
		return debounceTimer, debounceCh
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return debounceTimer, debounceCh
	}

	w.logger.Debug("config file changed",
		observability.String("path", event.Name),
		observability.String("op", event.Op.String()),
	)

	if debounceTimer != nil {
		debounceTimer.Stop()
	}
	debounceTimer = time.NewTimer(w.debounceDelay)
	return debounceTimer, debounceTimer.C
}

func (w *Watcher) handleWatchError(err error) {
	w.logger.Error("config watcher error",
		observability.Error(err),
	)
	if w.errorCallback != nil {
		w.errorCallback(err)
	}
}

// reload keeps the previous configuration when the new file does not load
// or validate.
func (w *Watcher) reload() {
	w.logger.Info("reloading configuration",
		observability.String("path", w.path),
	)

	config, err := w.load()
	if err != nil {
		w.logger.Error("failed to reload configuration",
			observability.Error(err),
		)
		if w.errorCallback != nil {
			w.errorCallback(err)
		}
		return
	}

	w.mu.Lock()
	w.lastConfig = config
	w.mu.Unlock()

	w.logger.Info("configuration reloaded successfully")

	if w.callback != nil {
		w.callback(config)
	}
}

func (w *Watcher) load() (*Config, error) {
	config, err := w.loader.Load(w.path)
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LevelReloader returns a callback that applies the reloaded log level to
// logger. Other settings take effect on restart.
func LevelReloader(logger observability.Logger) ConfigCallback {
	return func(cfg *Config) {
		if cfg.Logging.Level == "" {
			return
		}
		if err := logger.SetLevel(cfg.Logging.Level); err != nil {
			logger.Warn("ignoring reloaded log level",
				observability.String("level", cfg.Logging.Level),
				observability.Error(err),
			)
			return
		}
		logger.Info("log level updated",
			observability.String("level", cfg.Logging.Level),
		)
	}
}
