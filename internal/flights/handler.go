package flights

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/skywatch/internal/config"
	"github.com/vyrodovalexey/skywatch/internal/observability"
	"github.com/vyrodovalexey/skywatch/internal/opensky"
	"github.com/vyrodovalexey/skywatch/internal/util"
)

// Response bodies.
const (
	msgMissingParameters = "Missing required parameters"
	msgUpstreamFailed    = "upstream request failed"
	msgUpstreamTimeout   = "upstream request timed out"
)

// ArrivalsClient fetches arrivals from the upstream API.
type ArrivalsClient interface {
	ArrivalsURL(q opensky.ArrivalsQuery) string
	Arrivals(ctx context.Context, q opensky.ArrivalsQuery) (*opensky.ArrivalsResponse, error)
}

// HandlerConfig holds the dependencies of Handler.
type HandlerConfig struct {
	Client        ArrivalsClient
	Tracer        trace.Tracer
	Meter         metric.Meter
	Logger        observability.Logger
	FailurePolicy string
}

// Handler serves GET /arrivals.
type Handler struct {
	client           ArrivalsClient
	transformer      *Transformer
	tracer           trace.Tracer
	arrivalsRequests metric.Int64Counter
	logger           observability.Logger
	failurePolicy    string
}

// NewHandler creates the handler and its instruments.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Client == nil {
		return nil, errors.New("flights: client is required")
	}
	if cfg.Tracer == nil || cfg.Meter == nil {
		return nil, errors.New("flights: tracer and meter are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger()
	}

	policy := cfg.FailurePolicy
	if policy == "" {
		policy = config.FailurePolicySurface
	}
	if err := util.ValidateOneOf(policy, "failurePolicy",
		config.FailurePolicySurface, config.FailurePolicySilent); err != nil {
		return nil, util.NewConfigErrorWithCause("upstream.failurePolicy", "unsupported failure policy", err)
	}

	arrivalsRequests, err := cfg.Meter.Int64Counter(MetricArrivalsRequests,
		metric.WithDescription("Number of arrivals lookups by airport"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", MetricArrivalsRequests, err)
	}

	transformer, err := NewTransformer(cfg.Tracer, cfg.Meter, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Handler{
		client:           cfg.Client,
		transformer:      transformer,
		tracer:           cfg.Tracer,
		arrivalsRequests: arrivalsRequests,
		logger:           cfg.Logger,
		failurePolicy:    policy,
	}, nil
}

// Arrivals handles GET /arrivals?airport=&begin=&end=.
func (h *Handler) Arrivals(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), SpanArrivals)
	defer span.End()

	query := opensky.ArrivalsQuery{
		Airport: c.Query("airport"),
		Begin:   c.Query("begin"),
		End:     c.Query("end"),
	}
	if query.Airport == "" || query.Begin == "" || query.End == "" {
		span.SetAttributes(attribute.Bool("arrivals.invalid_request", true))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingParameters})
		return
	}

	span.SetAttributes(
		attribute.String("arrivals.airport", query.Airport),
		attribute.String("arrivals.begin", query.Begin),
		attribute.String("arrivals.end", query.End),
	)
	h.arrivalsRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("airport", query.Airport)))

	logger := h.logger.WithContext(ctx)
	logger.Info("finding arrivals for airport",
		observability.String("airport", query.Airport),
		observability.String("begin", query.Begin),
		observability.String("end", query.End),
	)
	logger.Info("calling OpenSky API",
		observability.String("url", h.client.ArrivalsURL(query)),
	)

	resp, err := h.client.Arrivals(ctx, query)
	if err != nil {
		h.handleUpstreamError(c, span, logger, err)
		return
	}

	logger.Info("response from OpenSky API",
		observability.Int("status", resp.StatusCode),
		observability.Int("flights", len(resp.Flights)),
	)

	c.JSON(http.StatusOK, h.transformer.GetPlaneData(ctx, resp.Flights))
}

// handleUpstreamError answers according to the failure policy.
func (h *Handler) handleUpstreamError(c *gin.Context, span trace.Span, logger observability.Logger, err error) {
	fields := []observability.Field{
		observability.String("upstream", opensky.UpstreamName),
		observability.Error(err),
	}
	var upstreamErr *util.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.StatusCode != 0 {
		fields = append(fields, observability.Int("status", upstreamErr.StatusCode))
	}

	if h.failurePolicy == config.FailurePolicySilent {
		span.SetAttributes(attribute.Bool("arrivals.upstream_failed", true))
		span.RecordError(err)
		logger.Warn("OpenSky API request failed, returning no arrivals", fields...)
		c.JSON(http.StatusOK, []PlaneSummary{})
		return
	}

	observability.RecordSpanError(span, err)
	logger.Error("OpenSky API request failed", fields...)

	if util.IsTimeout(err) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": msgUpstreamTimeout})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": msgUpstreamFailed})
}
