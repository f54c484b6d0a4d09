// Package opensky is a client for the OpenSky Network REST API.
//
// Only the arrivals endpoint is implemented:
//
//	client, err := opensky.NewClient(opensky.Config{
//	    BaseURL: "https://opensky-network.org/api",
//	    Timeout: 10 * time.Second,
//	})
//	resp, err := client.Arrivals(ctx, opensky.ArrivalsQuery{
//	    Airport: "KSEA", Begin: "1700000000", End: "1700003600",
//	})
//
// Outbound requests run through an otelhttp transport, so each call gets a
// client span parented on the span in ctx and carries W3C trace context.
package opensky
