// Package flights implements the arrivals endpoint: it queries OpenSky for
// the flights that landed at an airport and returns a trimmed summary of
// each plane.
//
// Every request opens an "arrivals" span and counts arrivals_requests by
// airport. The transformation of upstream records runs in a nested
// "get_plane_data" span and adds the number of emitted summaries to
// planes_viewed.
package flights
