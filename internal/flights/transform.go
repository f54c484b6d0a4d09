package flights

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/skywatch/internal/observability"
)

// Transformer turns upstream records into plane summaries.
type Transformer struct {
	tracer       trace.Tracer
	planesViewed metric.Int64Counter
	logger       observability.Logger
}

// NewTransformer creates the planes_viewed counter on meter.
func NewTransformer(tracer trace.Tracer, meter metric.Meter, logger observability.Logger) (*Transformer, error) {
	planesViewed, err := meter.Int64Counter(MetricPlanesViewed,
		metric.WithDescription("Number of plane summaries returned to callers"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricPlanesViewed, err)
	}

	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Transformer{
		tracer:       tracer,
		planesViewed: planesViewed,
		logger:       logger,
	}, nil
}

// GetPlaneData keeps icao24, trims the callsign and preserves input order.
// Records missing either field are dropped and logged. The counter is
// incremented by the number of summaries produced, zero included.
func (t *Transformer) GetPlaneData(ctx context.Context, records []FlightRecord) []PlaneSummary {
	ctx, span := t.tracer.Start(ctx, SpanGetPlaneData)
	defer span.End()

	summaries := make([]PlaneSummary, 0, len(records))
	dropped := 0

	for i := range records {
		rec := &records[i]
		if rec.ICAO24 == nil || rec.Callsign == nil {
			dropped++
			t.logger.WithContext(ctx).Warn("dropping malformed flight record",
				observability.Int("index", i),
				observability.Bool("has_icao24", rec.ICAO24 != nil),
				observability.Bool("has_callsign", rec.Callsign != nil),
			)
			continue
		}

		summaries = append(summaries, PlaneSummary{
			ICAO24:   *rec.ICAO24,
			Callsign: strings.TrimSpace(*rec.Callsign),
		})
	}

	span.SetAttributes(
		attribute.Int("flights.received", len(records)),
		attribute.Int("flights.returned", len(summaries)),
		attribute.Int("flights.dropped", dropped),
	)
	t.planesViewed.Add(ctx, int64(len(summaries)))

	return summaries
}
