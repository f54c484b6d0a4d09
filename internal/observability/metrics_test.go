package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_DefaultNamespace(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	m.RecordRequest(http.MethodGet, "/rolldice", http.StatusOK, 10*time.Millisecond, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.requestsTotal.WithLabelValues(http.MethodGet, "/rolldice", "200"),
	))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "skywatch_http_requests_total")
	assert.Contains(t, names, "skywatch_start_time_seconds")
}

func TestMetrics_SetBuildInfo(t *testing.T) {
	t.Parallel()

	m := NewMetrics("arrivals")
	m.SetBuildInfo("1.2.3", "abc123", "2026-01-01T00:00:00Z")

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.buildInfo.WithLabelValues("1.2.3", "abc123", "2026-01-01T00:00:00Z"),
	))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics("rolldice")
	m.RecordRequest(http.MethodGet, "/rolldice", http.StatusOK, time.Millisecond, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `rolldice_http_requests_total{method="GET",route="/rolldice",status="200"} 1`)
}

func TestGinMetrics(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")

	engine := gin.New()
	engine.Use(GinMetrics(m))
	engine.GET("/arrivals/:airport", func(c *gin.Context) {
		c.JSON(http.StatusOK, []string{})
	})

	for _, path := range []string{"/arrivals/KSEA", "/arrivals/EGLL", "/missing"} {
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.requestsTotal.WithLabelValues(http.MethodGet, "/arrivals/:airport", "200"),
	))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.requestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404"),
	))
	assert.Equal(t, 0.0, testutil.ToFloat64(
		m.activeRequests.WithLabelValues(http.MethodGet, "/arrivals/:airport"),
	))
}

func TestMetrics_RecordPanic(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordPanic()
	m.RecordPanic()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.panicsRecovered))
}
