package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/skywatch/internal/config"
	"github.com/vyrodovalexey/skywatch/internal/health"
	"github.com/vyrodovalexey/skywatch/internal/middleware"
	"github.com/vyrodovalexey/skywatch/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// ErrAlreadyRunning is returned by Start on a running server.
var ErrAlreadyRunning = errors.New("server already running")

// Config holds configuration for the HTTP server.
type Config struct {
	Port           int
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MetricsPath    string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Port:           config.DefaultPort,
		ReadTimeout:    config.DefaultReadTimeout,
		WriteTimeout:   config.DefaultWriteTimeout,
		IdleTimeout:    config.DefaultIdleTimeout,
		MaxHeaderBytes: config.DefaultMaxHeaderBytes,
		MetricsPath:    config.DefaultMetricsPath,
	}
}

// ConfigFrom derives the server configuration from the service config.
func ConfigFrom(cfg *config.Config) *Config {
	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}
	return &Config{
		Port:           cfg.Server.Port,
		Address:        cfg.Server.Address,
		ReadTimeout:    cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:   cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:    cfg.Server.IdleTimeout.Duration(),
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		MetricsPath:    metricsPath,
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// Server is the HTTP server of one skywatch service.
type Server struct {
	engine     *gin.Engine
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener
	logger     observability.Logger
	config     *Config
	mu         sync.RWMutex
	running    bool
}

// New creates the server and mounts /health, /ready, /live and, when
// configured, the metrics endpoint. Service routes are added with Handle.
func New(cfg *Config, telemetry *observability.Telemetry, checker *health.Checker) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	logger := telemetry.Logger()
	metrics := telemetry.Metrics()

	engine := gin.New()
	if tracer := telemetry.Tracer(); tracer != nil {
		engine.Use(observability.GinTracing(tracer))
	}
	engine.Use(observability.GinMetrics(metrics))

	if checker != nil {
		engine.GET("/health", checker.HealthHandler())
		engine.GET("/ready", checker.ReadinessHandler())
		engine.GET("/live", checker.LivenessHandler())
	}
	if cfg.MetricsPath != "" {
		engine.GET(cfg.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	handler := middleware.Chain(engine,
		middleware.Recovery(logger, middleware.WithPanicCallback(metrics.RecordPanic)),
		middleware.RequestID(),
		middleware.Logging(logger),
	)

	return &Server{
		engine:  engine,
		handler: handler,
		logger:  logger,
		config:  cfg,
	}
}

// Handle registers a GET route.
func (s *Server) Handle(path string, handlers ...gin.HandlerFunc) {
	s.engine.GET(path, handlers...)
}

// Handler returns the engine wrapped in the server middlewares.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Addr())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		MaxHeaderBytes:    s.config.MaxHeaderBytes,
	}
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", ln.Addr().String()),
		observability.Duration("readTimeout", s.config.ReadTimeout),
		observability.Duration("writeTimeout", s.config.WriteTimeout),
	)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ListenAddr returns the bound address, or "" before Start.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
