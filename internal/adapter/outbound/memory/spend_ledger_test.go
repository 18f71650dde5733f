package memory

import (
	"context"
	"testing"
	"time"

	"github.com/tripforge/tripforge/internal/domain/compliance"
)

func TestSpendLedgerSum(t *testing.T) {
	l := NewSpendLedger()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	from, to := compliance.MonthWindow(now)

	l.Record(SpendEntry{UserID: "u-1", OrgID: "acme", Status: "confirmed", Amount: 500, BookedAt: now.AddDate(0, 0, -3)})
	l.Record(SpendEntry{UserID: "u-1", OrgID: "acme", Status: "ticketed", Amount: 250, BookedAt: now.AddDate(0, 0, -1)})
	// Cancelled bookings never count.
	l.Record(SpendEntry{UserID: "u-1", OrgID: "acme", Status: "cancelled", Amount: 999, BookedAt: now})
	// Outside the window.
	l.Record(SpendEntry{UserID: "u-1", OrgID: "acme", Status: "confirmed", Amount: 999, BookedAt: now.AddDate(0, -1, 0)})
	// Different user and org.
	l.Record(SpendEntry{UserID: "u-2", OrgID: "acme", Status: "confirmed", Amount: 999, BookedAt: now})
	l.Record(SpendEntry{UserID: "u-1", OrgID: "other", Status: "confirmed", Amount: 999, BookedAt: now})

	sum, err := l.SumBookingAmount(context.Background(), "u-1", "acme", compliance.QualifyingStatuses, from, to)
	if err != nil {
		t.Fatalf("SumBookingAmount: %v", err)
	}
	if sum != 750 {
		t.Errorf("sum = %v, want 750", sum)
	}
}

func TestSpendLedgerWindowBounds(t *testing.T) {
	l := NewSpendLedger()
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	// Inclusive lower bound, exclusive upper bound.
	l.Record(SpendEntry{UserID: "u", OrgID: "o", Status: "confirmed", Amount: 1, BookedAt: from})
	l.Record(SpendEntry{UserID: "u", OrgID: "o", Status: "confirmed", Amount: 2, BookedAt: to})

	sum, err := l.SumBookingAmount(context.Background(), "u", "o", []string{"confirmed"}, from, to)
	if err != nil {
		t.Fatalf("SumBookingAmount: %v", err)
	}
	if sum != 1 {
		t.Errorf("sum = %v, want 1 (upper bound exclusive)", sum)
	}
}
