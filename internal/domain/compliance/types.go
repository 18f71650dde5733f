// Package compliance contains domain types for evaluating a proposed
// booking against an effective travel policy.
package compliance

import (
	"time"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

// Category is the booking category under evaluation.
type Category string

const (
	CategoryFlight Category = "flight"
	CategoryHotel  Category = "hotel"
)

// BookingRequest is a proposed booking to evaluate. Amounts are expressed in
// one settlement currency per booking; currency conversion happens upstream.
type BookingRequest struct {
	Category Category `json:"category" validate:"required,oneof=flight hotel"`
	// Amount is the booking amount. For hotels this is the total stay
	// amount unless TotalAmount is set separately.
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"required,len=3"`

	// CabinClass applies to flight requests.
	CabinClass travel.CabinClass `json:"cabinClass,omitempty"`

	// Nights applies to hotel requests (per-night limit check).
	Nights int `json:"nights,omitempty" validate:"min=0"`
	// TotalAmount applies to hotel requests (total limit check). Zero
	// falls back to Amount.
	TotalAmount float64 `json:"totalAmount,omitempty" validate:"min=0"`

	DepartureDate *time.Time `json:"departureDate,omitempty"`
	ReturnDate    *time.Time `json:"returnDate,omitempty"`

	// BookingID is set when the evaluation concerns an existing booking;
	// carried into the audit record.
	BookingID string `json:"bookingId,omitempty"`
}

// LimitsSnapshot is the limits view used for one verdict, returned to the
// caller so a UI can show remaining budget even when nothing was violated.
// Remaining figures treat the evaluated booking as already spent.
type LimitsSnapshot struct {
	FlightMaxAmount  *float64 `json:"flightMaxAmount,omitempty"`
	HotelMaxPerNight *float64 `json:"hotelMaxPerNight,omitempty"`
	HotelMaxTotal    *float64 `json:"hotelMaxTotal,omitempty"`

	MonthlyLimit     *float64 `json:"monthlyLimit,omitempty"`
	MonthlySpent     float64  `json:"monthlySpent"`
	MonthlyRemaining *float64 `json:"monthlyRemaining,omitempty"`

	AnnualLimit     *float64 `json:"annualLimit,omitempty"`
	AnnualSpent     float64  `json:"annualSpent"`
	AnnualRemaining *float64 `json:"annualRemaining,omitempty"`
}

// Verdict is the outcome of one compliance evaluation. Failed checks are
// data, not errors: every applicable check runs and appends to Violations.
type Verdict struct {
	Allowed          bool     `json:"allowed"`
	RequiresApproval bool     `json:"requiresApproval"`
	Violations       []string `json:"violations"`

	Limits LimitsSnapshot `json:"limits"`

	// PolicyID and ExceptionID reference the consulted policy state;
	// both empty when no policy applied.
	PolicyID    string `json:"policyId,omitempty"`
	ExceptionID string `json:"exceptionId,omitempty"`
	// PolicyApplied is false when no effective policy existed, in which
	// case the request is always allowed.
	PolicyApplied bool `json:"policyApplied"`

	// ManagerOverride is true when violations were present but the
	// policy's manager-override flag flipped the verdict to allowed
	// pending review.
	ManagerOverride bool `json:"managerOverride,omitempty"`
}
