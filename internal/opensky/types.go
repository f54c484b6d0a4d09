package opensky

import "net/url"

// Flight is one record of the /flights/arrival response. Fields are
// pointers so that absent keys can be told apart from empty values.
type Flight struct {
	ICAO24              *string `json:"icao24"`
	Callsign            *string `json:"callsign"`
	FirstSeen           *int64  `json:"firstSeen,omitempty"`
	LastSeen            *int64  `json:"lastSeen,omitempty"`
	EstDepartureAirport *string `json:"estDepartureAirport,omitempty"`
	EstArrivalAirport   *string `json:"estArrivalAirport,omitempty"`
}

// ArrivalsQuery selects arrivals at an airport within a time window.
// Begin and End are passed through verbatim.
type ArrivalsQuery struct {
	Airport string
	Begin   string
	End     string
}

// Values encodes the query parameters.
func (q ArrivalsQuery) Values() url.Values {
	v := url.Values{}
	v.Set("airport", q.Airport)
	v.Set("begin", q.Begin)
	v.Set("end", q.End)
	return v
}

// ArrivalsResponse is a successful arrivals call.
type ArrivalsResponse struct {
	StatusCode int
	Flights    []Flight
}
