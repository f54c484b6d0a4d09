package flights

import "github.com/vyrodovalexey/skywatch/internal/opensky"

// FlightRecord is one upstream arrival record.
type FlightRecord = opensky.Flight

// PlaneSummary is the per-plane view returned to callers.
type PlaneSummary struct {
	ICAO24   string `json:"icao24"`
	Callsign string `json:"callsign"`
}

// InstrumentationName is the meter scope of the flights instruments.
const InstrumentationName = "github.com/vyrodovalexey/skywatch/internal/flights"

// Span and instrument names.
const (
	SpanArrivals     = "arrivals"
	SpanGetPlaneData = "get_plane_data"

	MetricArrivalsRequests = "arrivals_requests"
	MetricPlanesViewed     = "planes_viewed"
)
