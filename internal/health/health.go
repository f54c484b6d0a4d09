// Package health provides health, readiness and liveness probe endpoints.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultReadinessProbeTimeout bounds the readiness checks of one probe.
const DefaultReadinessProbeTimeout = 5 * time.Second

// Status represents the health status.
type Status string

const (
	// StatusHealthy indicates the service is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service is unhealthy.
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the service is degraded but operational.
	StatusDegraded Status = "degraded"
	// StatusDraining indicates the service is shutting down.
	StatusDraining Status = "draining"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    Status    `json:"status"`
	Service   string    `json:"service,omitempty"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Status    Status           `json:"status"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Check represents an individual health check result.
type Check struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// CheckFunc is a function that performs a readiness check.
type CheckFunc func(ctx context.Context) Check

// Checker provides health and readiness checking functionality.
type Checker struct {
	service   string
	version   string
	startTime time.Time
	timeout   time.Duration
	draining  atomic.Bool
	checks    map[string]CheckFunc
	mu        sync.RWMutex
}

// NewChecker creates a new health checker.
func NewChecker(service, version string) *Checker {
	return &Checker{
		service:   service,
		version:   version,
		startTime: time.Now(),
		timeout:   DefaultReadinessProbeTimeout,
		checks:    make(map[string]CheckFunc),
	}
}

// RegisterCheck registers a readiness check.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a readiness check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// SetDraining marks the service as shutting down; readiness then fails so
// load balancers stop routing new requests.
func (c *Checker) SetDraining(draining bool) {
	c.draining.Store(draining)
}

// IsDraining reports whether SetDraining(true) was called.
func (c *Checker) IsDraining() bool {
	return c.draining.Load()
}

// Health returns the health status.
func (c *Checker) Health() HealthResponse {
	return HealthResponse{
		Status:    StatusHealthy,
		Service:   c.service,
		Version:   c.version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Readiness runs every registered check and aggregates the result.
func (c *Checker) Readiness(ctx context.Context) ReadinessResponse {
	response := ReadinessResponse{
		Status:    StatusHealthy,
		Checks:    make(map[string]Check),
		Timestamp: time.Now(),
	}

	if c.IsDraining() {
		response.Status = StatusDraining
		return response
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		names = append(names, name)
		checks[name] = fn
	}
	c.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		check := checks[name](ctx)
		response.Checks[name] = check

		switch {
		case check.Status == StatusUnhealthy:
			response.Status = StatusUnhealthy
		case check.Status == StatusDegraded && response.Status != StatusUnhealthy:
			response.Status = StatusDegraded
		}
	}

	return response
}

// HealthHandler returns a gin handler for the health endpoint.
func (c *Checker) HealthHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, c.Health())
	}
}

// ReadinessHandler returns a gin handler for the readiness endpoint.
// Unhealthy or draining services answer 503.
func (c *Checker) ReadinessHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		response := c.Readiness(ctx.Request.Context())

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy || response.Status == StatusDraining {
			statusCode = http.StatusServiceUnavailable
		}
		ctx.JSON(statusCode, response)
	}
}

// LivenessHandler returns a gin handler for the liveness endpoint.
func (c *Checker) LivenessHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
