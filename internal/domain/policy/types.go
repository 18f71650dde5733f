// Package policy contains domain types for travel spending policies and
// their resolution into a single effective ruleset.
package policy

import (
	"time"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

// CustomRule is an organization-authored CEL expression evaluated against a
// booking request during compliance. When the expression evaluates to true
// the request is flagged with Message as the violation text.
type CustomRule struct {
	Name string `json:"name" yaml:"name"`
	// Expression is a CEL expression over the booking request
	// (e.g. `category == "flight" && amount > 2000.0`).
	Expression string `json:"expression" yaml:"expression"`
	// Message is the human-readable violation text.
	Message string `json:"message" yaml:"message"`
}

// TravelPolicy is a base spending policy scoped to an organization and role.
// Limit fields are pointers: nil means "no limit", which is distinct from a
// zero limit.
type TravelPolicy struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	OrgID string `json:"orgId" yaml:"orgId"`
	// Role is the user role this policy applies to.
	Role string `json:"role" yaml:"role"`

	// Priority breaks ties between overlapping policies; higher wins.
	Priority int  `json:"priority" yaml:"priority"`
	Enabled  bool `json:"enabled" yaml:"enabled"`

	// EffectiveFrom/EffectiveTo bound the policy's validity window. Either
	// bound may be nil (open-ended); a policy with neither bound is always
	// active.
	EffectiveFrom *time.Time `json:"effectiveFrom,omitempty" yaml:"effectiveFrom,omitempty"`
	EffectiveTo   *time.Time `json:"effectiveTo,omitempty" yaml:"effectiveTo,omitempty"`

	FlightMaxAmount  *float64 `json:"flightMaxAmount,omitempty" yaml:"flightMaxAmount,omitempty"`
	HotelMaxPerNight *float64 `json:"hotelMaxPerNight,omitempty" yaml:"hotelMaxPerNight,omitempty"`
	HotelMaxTotal    *float64 `json:"hotelMaxTotal,omitempty" yaml:"hotelMaxTotal,omitempty"`

	MonthlyLimit *float64 `json:"monthlyLimit,omitempty" yaml:"monthlyLimit,omitempty"`
	AnnualLimit  *float64 `json:"annualLimit,omitempty" yaml:"annualLimit,omitempty"`

	AllowedCabinClasses []travel.CabinClass `json:"allowedCabinClasses,omitempty" yaml:"allowedCabinClasses,omitempty"`

	RequiresApprovalAbove *float64 `json:"requiresApprovalAbove,omitempty" yaml:"requiresApprovalAbove,omitempty"`
	AutoApproveBelow      *float64 `json:"autoApproveBelow,omitempty" yaml:"autoApproveBelow,omitempty"`

	AdvanceBookingDays  *int `json:"advanceBookingDays,omitempty" yaml:"advanceBookingDays,omitempty"`
	MaxTripDurationDays *int `json:"maxTripDurationDays,omitempty" yaml:"maxTripDurationDays,omitempty"`

	AllowManagerOverride bool `json:"allowManagerOverride" yaml:"allowManagerOverride"`

	CustomRules []CustomRule `json:"customRules,omitempty" yaml:"customRules,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// ActiveAt reports whether the policy is enabled and its effective window
// contains now.
func (p *TravelPolicy) ActiveAt(now time.Time) bool {
	if !p.Enabled {
		return false
	}
	if p.EffectiveFrom != nil && now.Before(*p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && now.After(*p.EffectiveTo) {
		return false
	}
	return true
}

// PolicyException is a time-bounded, per-user override of specific limits on
// one base policy. At most one exception applies per evaluation.
type PolicyException struct {
	ID       string `json:"id" yaml:"id"`
	PolicyID string `json:"policyId" yaml:"policyId"`
	UserID   string `json:"userId" yaml:"userId"`

	Active bool `json:"active" yaml:"active"`

	ValidFrom *time.Time `json:"validFrom,omitempty" yaml:"validFrom,omitempty"`
	ValidTo   *time.Time `json:"validTo,omitempty" yaml:"validTo,omitempty"`

	// Overridable limits. A nil field leaves the base policy's value in
	// place; a non-nil field takes precedence.
	FlightMaxAmount  *float64 `json:"flightMaxAmount,omitempty" yaml:"flightMaxAmount,omitempty"`
	HotelMaxPerNight *float64 `json:"hotelMaxPerNight,omitempty" yaml:"hotelMaxPerNight,omitempty"`
	HotelMaxTotal    *float64 `json:"hotelMaxTotal,omitempty" yaml:"hotelMaxTotal,omitempty"`

	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// ActiveAt reports whether the exception is active and its validity window
// contains now. An exception can exist yet not be currently valid; that is
// not the same as no exception.
func (e *PolicyException) ActiveAt(now time.Time) bool {
	if !e.Active {
		return false
	}
	if e.ValidFrom != nil && now.Before(*e.ValidFrom) {
		return false
	}
	if e.ValidTo != nil && now.After(*e.ValidTo) {
		return false
	}
	return true
}

// EffectivePolicy is the resolved, read-only ruleset for one evaluation:
// exactly one base policy merged with at most one currently-valid exception.
type EffectivePolicy struct {
	PolicyID   string `json:"policyId"`
	PolicyName string `json:"policyName,omitempty"`
	// ExceptionID is empty when no exception was applied.
	ExceptionID string `json:"exceptionId,omitempty"`

	FlightMaxAmount  *float64 `json:"flightMaxAmount,omitempty"`
	HotelMaxPerNight *float64 `json:"hotelMaxPerNight,omitempty"`
	HotelMaxTotal    *float64 `json:"hotelMaxTotal,omitempty"`

	MonthlyLimit *float64 `json:"monthlyLimit,omitempty"`
	AnnualLimit  *float64 `json:"annualLimit,omitempty"`

	AllowedCabinClasses []travel.CabinClass `json:"allowedCabinClasses,omitempty"`

	RequiresApprovalAbove *float64 `json:"requiresApprovalAbove,omitempty"`
	AutoApproveBelow      *float64 `json:"autoApproveBelow,omitempty"`

	AdvanceBookingDays  *int `json:"advanceBookingDays,omitempty"`
	MaxTripDurationDays *int `json:"maxTripDurationDays,omitempty"`

	AllowManagerOverride bool `json:"allowManagerOverride"`

	CustomRules []CustomRule `json:"customRules,omitempty"`
}

// CabinAllowed reports whether the cabin class is permitted. An empty
// allowed set permits every cabin.
func (p *EffectivePolicy) CabinAllowed(c travel.CabinClass) bool {
	if len(p.AllowedCabinClasses) == 0 {
		return true
	}
	for _, allowed := range p.AllowedCabinClasses {
		if allowed == c {
			return true
		}
	}
	return false
}
