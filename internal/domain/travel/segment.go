package travel

import "time"

// SegmentEndpoint is one end of a flight segment.
type SegmentEndpoint struct {
	// Airport is the display name (e.g. "Heathrow").
	Airport string `json:"airport"`
	// Code is the IATA airport code.
	Code string `json:"code"`
	// City is the city display name.
	City string `json:"city,omitempty"`
	// Terminal is the terminal designator, when known.
	Terminal string `json:"terminal,omitempty"`
	// At is the scheduled local departure or arrival time.
	At time.Time `json:"at"`
}

// Segment is one canonical flight segment.
type Segment struct {
	Airline      Airline         `json:"airline"`
	FlightNumber string          `json:"flightNumber"`
	Departure    SegmentEndpoint `json:"departure"`
	Arrival      SegmentEndpoint `json:"arrival"`

	// Duration is an ISO-8601 duration string (e.g. "PT2H30M").
	Duration string `json:"duration"`
	Stops    int    `json:"stops"`

	CabinClass CabinClass `json:"cabinClass,omitempty"`
	Aircraft   string     `json:"aircraft,omitempty"`

	// Baggage holds human-readable allowance summaries
	// (e.g. "1 checked bag", "1 carry-on bag").
	Baggage []string `json:"baggage,omitempty"`
}
