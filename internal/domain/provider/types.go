package provider

import (
	"encoding/json"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

// BookingParams are the inputs to Adapter.CreateBooking.
type BookingParams struct {
	OfferID    string             `json:"offerId" validate:"required"`
	Passengers []travel.Passenger `json:"passengers" validate:"required,min=1"`
	// Services are requested ancillary service selections. Selections
	// whose service is no longer offered upstream are silently dropped;
	// the confirmation reports honored versus dropped counts.
	Services []ServiceSelection `json:"services,omitempty"`
}

// ServiceSelection requests a quantity of an ancillary service by id.
type ServiceSelection struct {
	ServiceID string `json:"serviceId"`
	Quantity  int    `json:"quantity"`
}

// Service is an ancillary service currently offered for an offer.
type Service struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// UnitAmount is the current per-unit price. Service prices are not
	// stable between calls; re-fetch before booking.
	UnitAmount      float64 `json:"unitAmount"`
	Currency        string  `json:"currency"`
	MaximumQuantity int     `json:"maximumQuantity,omitempty"`
}

// ServiceQuote is the result of re-pricing requested service selections
// against the provider's current catalogue.
type ServiceQuote struct {
	// Total is the summed price of all honored selections.
	Total    float64 `json:"total"`
	Currency string  `json:"currency,omitempty"`
	// Honored lists the selections still offered upstream.
	Honored []ServiceSelection `json:"honored"`
	// Dropped lists requested service ids no longer offered.
	Dropped []string `json:"dropped"`
}

// SeatMap is a provider seat map for one segment. The cabin layout is kept
// opaque; the core does not interpret it.
type SeatMap struct {
	ID        string          `json:"id"`
	SegmentID string          `json:"segmentId"`
	Cabins    json.RawMessage `json:"cabins,omitempty"`
}
