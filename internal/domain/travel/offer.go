// Package travel contains the canonical, provider-agnostic model that every
// supplier adapter normalizes into and out of.
package travel

import (
	"encoding/json"
	"time"
)

// CabinClass is the canonical cabin-class vocabulary.
type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// DefaultBookableSeats is used when a provider omits the seat count.
// The substitution is deliberate and documented; do not infer a value.
const DefaultBookableSeats = 9

// Price is the canonical price breakdown for an offer or booking.
// Total is not guaranteed to equal Base + Taxes across providers; the
// breakdown is informational only.
type Price struct {
	Total    float64 `json:"total"`
	Base     float64 `json:"base"`
	Taxes    float64 `json:"taxes"`
	Currency string  `json:"currency"`
}

// Penalty is an optional change or refund penalty attached to an offer.
type Penalty struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Airline identifies a carrier by display name and IATA code.
type Airline struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Offer is the canonical flight offer. Offers are constructed fresh per
// search call, are immutable, and are never persisted by the core.
type Offer struct {
	// ID is the provider-scoped offer identifier.
	ID string `json:"id"`
	// Provider is the tag of the adapter that produced this offer.
	Provider string `json:"provider"`

	Price    Price     `json:"price"`
	Outbound []Segment `json:"outbound"`
	Inbound  []Segment `json:"inbound,omitempty"`

	ValidatingAirline Airline `json:"validatingAirline"`

	Refundable bool   `json:"refundable"`
	Changeable bool   `json:"changeable"`
	FareBrand  string `json:"fareBrand,omitempty"`

	CabinClass CabinClass `json:"cabinClass"`
	// CabinMarketingName is the carrier's marketing name for the cabin
	// (e.g. "Economy Basic"), when the provider exposes one.
	CabinMarketingName string `json:"cabinMarketingName,omitempty"`

	ChangePenalty *Penalty `json:"changePenalty,omitempty"`
	RefundPenalty *Penalty `json:"refundPenalty,omitempty"`

	// BookableSeats is the number of seats bookable at this price.
	// Defaults to DefaultBookableSeats when the provider omits it.
	BookableSeats int `json:"bookableSeats"`

	// ExpiresAt is the upstream validity deadline for this offer.
	// Zero means the provider did not state one.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`

	// Raw is the opaque provider payload, retained for audit.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Expired reports whether the offer's validity window has elapsed at now.
// Offers without a stated expiry never report expired.
func (o *Offer) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}

// SearchParams are the canonical flight search parameters.
type SearchParams struct {
	// Origin and Destination are IATA airport or city codes.
	Origin      string `json:"origin" validate:"required,len=3"`
	Destination string `json:"destination" validate:"required,len=3"`
	// DepartureDate and ReturnDate are ISO dates (YYYY-MM-DD).
	// ReturnDate empty means one-way.
	DepartureDate string `json:"departureDate" validate:"required,datetime=2006-01-02"`
	ReturnDate    string `json:"returnDate,omitempty" validate:"omitempty,datetime=2006-01-02"`

	Adults   int `json:"adults" validate:"min=1,max=9"`
	Children int `json:"children" validate:"min=0,max=9"`
	Infants  int `json:"infants" validate:"min=0,max=9"`

	CabinClass CabinClass `json:"cabinClass,omitempty"`
	MaxResults int        `json:"maxResults,omitempty"`
}
