package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tripforge/tripforge/internal/domain/compliance"
)

// SpendEntry is one recorded booking spend.
type SpendEntry struct {
	UserID   string
	OrgID    string
	Status   string
	Amount   float64
	BookedAt time.Time
}

// SpendLedger implements compliance.SpendLedger over an in-memory slice.
type SpendLedger struct {
	mu      sync.RWMutex
	entries []SpendEntry
}

var _ compliance.SpendLedger = (*SpendLedger)(nil)

// NewSpendLedger creates an empty in-memory spend ledger.
func NewSpendLedger() *SpendLedger {
	return &SpendLedger{}
}

// Record appends a spend entry.
func (l *SpendLedger) Record(e SpendEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// SumBookingAmount sums the user's booking amounts in the given statuses
// within [from, to).
func (l *SpendLedger) SumBookingAmount(ctx context.Context, userID, orgID string, statuses []string, from, to time.Time) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	wanted := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}

	var sum float64
	for _, e := range l.entries {
		if e.UserID != userID || e.OrgID != orgID {
			continue
		}
		if _, ok := wanted[e.Status]; !ok {
			continue
		}
		if e.BookedAt.Before(from) || !e.BookedAt.Before(to) {
			continue
		}
		sum += e.Amount
	}
	return sum, nil
}
