package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute is the label value used for requests that do not
// match any registered route, ensuring bounded cardinality.
const unmatchedRoute = "unmatched"

// Metrics holds the Prometheus HTTP server metrics and the registry that
// backs the /metrics endpoint.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	activeRequests  *prometheus.GaugeVec
	buildInfo       *prometheus.GaugeVec
	startTime       prometheus.Gauge
	panicsRecovered prometheus.Counter
	registry        *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "skywatch"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "route", "status"},
	)

	m.responseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(
				100, 10, 6,
			),
		},
		[]string{"method", "route", "status"},
	)

	m.activeRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Number of in-flight HTTP requests",
		},
		[]string{"method", "route"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the service",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help: "Start time of the service " +
				"in unix seconds",
		},
	)

	m.panicsRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_recovered_total",
			Help:      "Total number of handler panics recovered",
		},
	)

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.responseSize,
		m.activeRequests,
		m.buildInfo,
		m.startTime,
		m.panicsRecovered,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.startTime.SetToCurrentTime()

	return m
}

// RecordRequest records a completed HTTP request.
// The route parameter should be the matched route pattern,
// not the raw request path, to prevent cardinality explosion.
func (m *Metrics) RecordRequest(
	method, route string,
	status int,
	duration time.Duration,
	respSize int64,
) {
	statusStr := strconv.Itoa(status)

	m.requestsTotal.WithLabelValues(
		method, route, statusStr,
	).Inc()
	m.requestDuration.WithLabelValues(
		method, route, statusStr,
	).Observe(duration.Seconds())
	m.responseSize.WithLabelValues(
		method, route, statusStr,
	).Observe(float64(respSize))
}

// RecordPanic counts a recovered handler panic.
func (m *Metrics) RecordPanic() {
	m.panicsRecovered.Inc()
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(
	version, commit, buildTime string,
) {
	m.buildInfo.WithLabelValues(
		version, commit, buildTime,
	).Set(1)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// GinMetrics returns a gin middleware that records request metrics keyed
// by the matched route pattern.
func GinMetrics(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		metrics.activeRequests.WithLabelValues(method, route).Inc()
		defer metrics.activeRequests.WithLabelValues(method, route).Dec()

		c.Next()

		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}

		metrics.RecordRequest(
			method, route, c.Writer.Status(),
			time.Since(start),
			int64(size),
		)
	}
}
