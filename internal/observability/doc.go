// Package observability provides logging, metrics, and tracing
// functionality for the skywatch services.
//
// This package implements the three pillars of observability:
// structured logging via zap, metrics via the OpenTelemetry SDK (exported
// over OTLP and exposed to Prometheus), and distributed tracing via
// OpenTelemetry with OTLP export.
//
// # Telemetry
//
// Telemetry is constructed once per process and injected into handlers:
//
//	tel, err := observability.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
// # Logging
//
// The Logger interface provides structured logging:
//
//	tel.Logger().Info("request processed",
//	    observability.String("method", "GET"),
//	    observability.Int("status", 200),
//	)
//
// # Metrics
//
// Counters are created from a named meter and exported periodically:
//
//	counter, _ := tel.Meter("skywatch/flights").Int64Counter("planes_viewed")
//	counter.Add(ctx, 3)
//
// HTTP server metrics and the OpenTelemetry instruments share the registry
// served by Metrics().Handler().
//
// # Tracing
//
// Spans are started from the injected tracer:
//
//	ctx, span := tel.TraceTracer().Start(ctx, "arrivals")
//	defer span.End()
package observability
