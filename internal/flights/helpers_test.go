package flights

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/skywatch/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testTelemetry records spans, metrics and logs in memory.
type testTelemetry struct {
	tp     *sdktrace.TracerProvider
	spans  *tracetest.SpanRecorder
	mp     *sdkmetric.MeterProvider
	reader *sdkmetric.ManualReader
	logger observability.Logger
	logs   *observer.ObservedLogs
}

func newTestTelemetry(t *testing.T) *testTelemetry {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	core, logs := observer.New(zapcore.DebugLevel)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	return &testTelemetry{
		tp:     tp,
		spans:  spans,
		mp:     mp,
		reader: reader,
		logger: observability.NewLoggerFromZap(zap.New(core)),
		logs:   logs,
	}
}

// counter returns the sum of the named counter over data points whose
// attributes include attrs. found is false when the instrument has never
// been recorded.
func (tt *testTelemetry) counter(t *testing.T, name string, attrs ...attribute.KeyValue) (value int64, found bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, tt.reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			found = true
			for _, dp := range sum.DataPoints {
				if hasAttrs(dp.Attributes, attrs) {
					value += dp.Value
				}
			}
		}
	}
	return value, found
}

func hasAttrs(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func (tt *testTelemetry) span(t *testing.T, name string) sdktrace.ReadOnlySpan {
	t.Helper()

	for _, s := range tt.spans.Ended() {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("span %q was not ended", name)
	return nil
}

func spanIntAttr(s sdktrace.ReadOnlySpan, key attribute.Key) (int64, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value.AsInt64(), true
		}
	}
	return 0, false
}

func strPtr(s string) *string {
	return &s
}
