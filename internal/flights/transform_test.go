package flights

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newTestTransformer(t *testing.T, tel *testTelemetry) *Transformer {
	t.Helper()

	tr, err := NewTransformer(tel.tp.Tracer("test"), tel.mp.Meter("test"), tel.logger)
	require.NoError(t, err)
	return tr
}

func TestTransformer_GetPlaneData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		records     []FlightRecord
		want        []PlaneSummary
		wantDropped int64
	}{
		{
			name:    "empty input",
			records: nil,
			want:    []PlaneSummary{},
		},
		{
			name: "trims callsign and keeps icao24",
			records: []FlightRecord{
				{ICAO24: strPtr("abc123"), Callsign: strPtr("  SWA123  ")},
			},
			want: []PlaneSummary{{ICAO24: "abc123", Callsign: "SWA123"}},
		},
		{
			name: "preserves order",
			records: []FlightRecord{
				{ICAO24: strPtr("a1"), Callsign: strPtr(" UAL1 ")},
				{ICAO24: strPtr("b2"), Callsign: strPtr("DAL2\t")},
				{ICAO24: strPtr("c3"), Callsign: strPtr("\nASA3")},
			},
			want: []PlaneSummary{
				{ICAO24: "a1", Callsign: "UAL1"},
				{ICAO24: "b2", Callsign: "DAL2"},
				{ICAO24: "c3", Callsign: "ASA3"},
			},
		},
		{
			name: "icao24 is not trimmed",
			records: []FlightRecord{
				{ICAO24: strPtr(" a1 "), Callsign: strPtr("UAL1")},
			},
			want: []PlaneSummary{{ICAO24: " a1 ", Callsign: "UAL1"}},
		},
		{
			name: "whitespace callsign becomes empty",
			records: []FlightRecord{
				{ICAO24: strPtr("a1"), Callsign: strPtr("        ")},
			},
			want: []PlaneSummary{{ICAO24: "a1", Callsign: ""}},
		},
		{
			name: "drops malformed records",
			records: []FlightRecord{
				{ICAO24: strPtr("a1"), Callsign: strPtr(" UAL1 ")},
				{ICAO24: strPtr("b2")},
				{Callsign: strPtr("DAL2")},
				{},
				{ICAO24: strPtr("e5"), Callsign: strPtr("ASA5 ")},
			},
			want: []PlaneSummary{
				{ICAO24: "a1", Callsign: "UAL1"},
				{ICAO24: "e5", Callsign: "ASA5"},
			},
			wantDropped: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tel := newTestTelemetry(t)
			got := newTestTransformer(t, tel).GetPlaneData(context.Background(), tt.records)

			assert.Equal(t, tt.want, got)

			viewed, found := tel.counter(t, MetricPlanesViewed)
			assert.True(t, found, "planes_viewed must be recorded even for empty input")
			assert.Equal(t, int64(len(tt.want)), viewed)

			span := tel.span(t, SpanGetPlaneData)
			dropped, ok := spanIntAttr(span, "flights.dropped")
			require.True(t, ok)
			assert.Equal(t, tt.wantDropped, dropped)

			warnings := tel.logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("dropping malformed flight record")
			assert.Equal(t, int(tt.wantDropped), warnings.Len())
		})
	}
}

func TestTransformer_CounterAccumulates(t *testing.T) {
	t.Parallel()

	tel := newTestTelemetry(t)
	tr := newTestTransformer(t, tel)

	tr.GetPlaneData(context.Background(), []FlightRecord{
		{ICAO24: strPtr("a1"), Callsign: strPtr("UAL1")},
		{ICAO24: strPtr("b2"), Callsign: strPtr("DAL2")},
	})
	tr.GetPlaneData(context.Background(), []FlightRecord{
		{ICAO24: strPtr("c3"), Callsign: strPtr("ASA3")},
	})

	viewed, _ := tel.counter(t, MetricPlanesViewed)
	assert.Equal(t, int64(3), viewed)
	assert.Len(t, tel.spans.Ended(), 2)
}

func TestTransformer_NestedSpan(t *testing.T) {
	t.Parallel()

	tel := newTestTelemetry(t)
	tr := newTestTransformer(t, tel)

	ctx, parent := tel.tp.Tracer("test").Start(context.Background(), SpanArrivals)
	tr.GetPlaneData(ctx, nil)
	parent.End()

	child := tel.span(t, SpanGetPlaneData)
	assert.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())
	assert.Equal(t, parent.SpanContext().TraceID(), child.SpanContext().TraceID())
}
