package policy

import (
	"testing"
	"time"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

func f64(v float64) *float64 { return &v }

func TestMergeWithoutException(t *testing.T) {
	base := &TravelPolicy{
		ID:              "pol-1",
		Name:            "Employee Travel",
		FlightMaxAmount: f64(500),
		MonthlyLimit:    f64(1000),
	}
	eff := Merge(base, nil)

	if eff.PolicyID != "pol-1" || eff.ExceptionID != "" {
		t.Errorf("unexpected identity fields: %+v", eff)
	}
	if eff.FlightMaxAmount == nil || *eff.FlightMaxAmount != 500 {
		t.Error("base flight max not carried through")
	}
	if eff.HotelMaxTotal != nil {
		t.Error("absent base limit should stay nil (no limit), not zero")
	}
}

func TestMergeExceptionOverridesFieldByField(t *testing.T) {
	base := &TravelPolicy{
		ID:               "pol-1",
		FlightMaxAmount:  f64(500),
		HotelMaxPerNight: f64(150),
		HotelMaxTotal:    f64(900),
	}
	exc := &PolicyException{
		ID:              "exc-1",
		PolicyID:        "pol-1",
		FlightMaxAmount: f64(1200),
		// HotelMaxPerNight left nil: base value must survive.
	}
	eff := Merge(base, exc)

	if eff.ExceptionID != "exc-1" {
		t.Errorf("ExceptionID = %q, want exc-1", eff.ExceptionID)
	}
	if *eff.FlightMaxAmount != 1200 {
		t.Errorf("FlightMaxAmount = %v, want exception value 1200", *eff.FlightMaxAmount)
	}
	if *eff.HotelMaxPerNight != 150 {
		t.Errorf("HotelMaxPerNight = %v, want base value 150", *eff.HotelMaxPerNight)
	}
	if *eff.HotelMaxTotal != 900 {
		t.Errorf("HotelMaxTotal = %v, want base value 900", *eff.HotelMaxTotal)
	}
}

func TestPolicyActiveAt(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	p := &TravelPolicy{Enabled: true, EffectiveFrom: &from, EffectiveTo: &to}
	if !p.ActiveAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("policy should be active inside its window")
	}
	if p.ActiveAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("policy should not be active after its window")
	}
	if p.ActiveAt(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Error("policy should not be active before its window")
	}

	p.Enabled = false
	if p.ActiveAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("disabled policy should never be active")
	}

	open := &TravelPolicy{Enabled: true}
	if !open.ActiveAt(time.Now()) {
		t.Error("policy with no bounds should always be active")
	}
}

func TestExceptionActiveAt(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)
	e := &PolicyException{Active: true, ValidFrom: &from, ValidTo: &to}

	if !e.ActiveAt(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Error("exception should be active inside its window")
	}
	// Expired exception: resolution must fall back to the base policy.
	if e.ActiveAt(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("exception should not be active after its window")
	}
}

func TestCabinAllowed(t *testing.T) {
	p := &EffectivePolicy{AllowedCabinClasses: []travel.CabinClass{travel.CabinEconomy, travel.CabinPremiumEconomy}}
	if !p.CabinAllowed(travel.CabinEconomy) {
		t.Error("economy should be allowed")
	}
	if p.CabinAllowed(travel.CabinBusiness) {
		t.Error("business should not be allowed")
	}

	unrestricted := &EffectivePolicy{}
	if !unrestricted.CabinAllowed(travel.CabinFirst) {
		t.Error("empty allowed set should permit every cabin")
	}
}
