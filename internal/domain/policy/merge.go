package policy

// Merge produces the effective policy view from a base policy and an
// optional, already-validated exception. Exception fields take precedence
// field-by-field; nil exception fields fall back to the base policy. The
// caller is responsible for only passing an exception whose validity window
// contains the evaluation instant.
func Merge(base *TravelPolicy, exc *PolicyException) *EffectivePolicy {
	eff := &EffectivePolicy{
		PolicyID:   base.ID,
		PolicyName: base.Name,

		FlightMaxAmount:  base.FlightMaxAmount,
		HotelMaxPerNight: base.HotelMaxPerNight,
		HotelMaxTotal:    base.HotelMaxTotal,

		MonthlyLimit: base.MonthlyLimit,
		AnnualLimit:  base.AnnualLimit,

		AllowedCabinClasses: base.AllowedCabinClasses,

		RequiresApprovalAbove: base.RequiresApprovalAbove,
		AutoApproveBelow:      base.AutoApproveBelow,

		AdvanceBookingDays:  base.AdvanceBookingDays,
		MaxTripDurationDays: base.MaxTripDurationDays,

		AllowManagerOverride: base.AllowManagerOverride,

		CustomRules: base.CustomRules,
	}

	if exc == nil {
		return eff
	}

	eff.ExceptionID = exc.ID
	if exc.FlightMaxAmount != nil {
		eff.FlightMaxAmount = exc.FlightMaxAmount
	}
	if exc.HotelMaxPerNight != nil {
		eff.HotelMaxPerNight = exc.HotelMaxPerNight
	}
	if exc.HotelMaxTotal != nil {
		eff.HotelMaxTotal = exc.HotelMaxTotal
	}
	return eff
}
