package compliance

import (
	"context"
	"time"
)

// QualifyingStatuses are the booking statuses counted toward spend limits.
var QualifyingStatuses = []string{"confirmed", "ticketed", "completed"}

// SpendLedger aggregates a user's historical booking spend. Reads are
// point-in-time: the evaluator holds no lock against concurrent bookings
// racing past the same limit. That eventual-consistency gap is accepted.
type SpendLedger interface {
	// SumBookingAmount returns the sum of the user's booking amounts in
	// the given statuses within [from, to).
	SumBookingAmount(ctx context.Context, userID, orgID string, statuses []string, from, to time.Time) (float64, error)
}

// MonthWindow returns the UTC calendar-month window containing now.
func MonthWindow(now time.Time) (from, to time.Time) {
	now = now.UTC()
	from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// YearWindow returns the UTC calendar-year window containing now.
func YearWindow(now time.Time) (from, to time.Time) {
	now = now.UTC()
	from = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}
