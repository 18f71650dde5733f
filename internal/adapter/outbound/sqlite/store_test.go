package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/tripforge/tripforge/internal/domain/audit"
	"github.com/tripforge/tripforge/internal/domain/compliance"
	"github.com/tripforge/tripforge/internal/domain/policy"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func f64(v float64) *float64 { return &v }

func TestPolicyRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	p := policy.TravelPolicy{
		ID:              "pol-1",
		Name:            "Default employee policy",
		OrgID:           "acme",
		Role:            "employee",
		Priority:        5,
		Enabled:         true,
		FlightMaxAmount: f64(800),
		MonthlyLimit:    f64(3000),
		CustomRules: []policy.CustomRule{
			{Name: "no-weekend", Expression: `category == "flight"`, Message: "flagged"},
		},
		CreatedAt: now,
	}
	if err := s.SavePolicy(ctx, &p); err != nil {
		t.Fatalf("SavePolicy: %v", err)
	}

	got, err := s.GetPolicy(ctx, "pol-1")
	if err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}
	if got.Name != p.Name || *got.FlightMaxAmount != 800 || len(got.CustomRules) != 1 {
		t.Errorf("got %+v", got)
	}
	if got.HotelMaxTotal != nil {
		t.Error("absent limit came back non-nil")
	}

	if _, err := s.GetPolicy(ctx, "missing"); !errors.Is(err, policy.ErrPolicyNotFound) {
		t.Errorf("GetPolicy missing = %v", err)
	}

	if err := s.DeletePolicy(ctx, "pol-1"); err != nil {
		t.Fatalf("DeletePolicy: %v", err)
	}
	if err := s.DeletePolicy(ctx, "pol-1"); !errors.Is(err, policy.ErrPolicyNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestEffectiveCandidateOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	base := policy.TravelPolicy{OrgID: "acme", Role: "employee", Enabled: true, CreatedAt: now.AddDate(0, -1, 0)}

	low := base
	low.ID, low.Priority = "low", 1
	high := base
	high.ID, high.Priority = "high", 9
	disabled := base
	disabled.ID, disabled.Priority, disabled.Enabled = "disabled", 99, false

	yesterday := now.AddDate(0, 0, -1)
	expired := base
	expired.ID, expired.Priority, expired.EffectiveTo = "expired", 50, &yesterday

	for _, p := range []policy.TravelPolicy{low, high, disabled, expired} {
		p := p
		if err := s.SavePolicy(ctx, &p); err != nil {
			t.Fatalf("SavePolicy(%s): %v", p.ID, err)
		}
	}

	got, err := s.EffectiveCandidate(ctx, "acme", "employee", now)
	if err != nil {
		t.Fatalf("EffectiveCandidate: %v", err)
	}
	if got == nil || got.ID != "high" {
		t.Errorf("candidate = %+v, want the active high-priority policy", got)
	}

	got, err = s.EffectiveCandidate(ctx, "acme", "contractor", now)
	if err != nil {
		t.Fatalf("EffectiveCandidate: %v", err)
	}
	if got != nil {
		t.Errorf("candidate = %+v, want nil for unmatched role", got)
	}
}

func TestEffectiveCandidateSubsecondRecencyTie(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	// Same priority, created within the same second. The fractional
	// timestamp is the later one and must win the recency tie-break even
	// though a trimmed text encoding would sort it before the whole second.
	older := policy.TravelPolicy{
		ID: "older", OrgID: "acme", Role: "employee", Enabled: true,
		CreatedAt: time.Date(2026, 6, 1, 9, 0, 5, 0, time.UTC),
	}
	newer := older
	newer.ID = "newer"
	newer.CreatedAt = time.Date(2026, 6, 1, 9, 0, 5, 500_000_000, time.UTC)

	for _, p := range []policy.TravelPolicy{older, newer} {
		p := p
		if err := s.SavePolicy(ctx, &p); err != nil {
			t.Fatalf("SavePolicy(%s): %v", p.ID, err)
		}
	}

	got, err := s.EffectiveCandidate(ctx, "acme", "employee", now)
	if err != nil {
		t.Fatalf("EffectiveCandidate: %v", err)
	}
	if got == nil || got.ID != "newer" {
		t.Errorf("candidate = %+v, want the most recently created policy", got)
	}
}

func TestActiveExceptionTemporalLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	from := now.AddDate(0, 0, -10)
	to := now.AddDate(0, 0, 10)

	e := policy.PolicyException{
		ID: "exc-1", PolicyID: "pol-1", UserID: "u-1", Active: true,
		ValidFrom: &from, ValidTo: &to, FlightMaxAmount: f64(5000),
		CreatedAt: now.AddDate(0, 0, -10),
	}
	if err := s.SaveException(ctx, &e); err != nil {
		t.Fatalf("SaveException: %v", err)
	}

	got, err := s.ActiveException(ctx, "pol-1", "u-1", now)
	if err != nil {
		t.Fatalf("ActiveException: %v", err)
	}
	if got == nil || *got.FlightMaxAmount != 5000 {
		t.Errorf("exception = %+v", got)
	}

	// Past the validity window the same row no longer applies.
	got, err = s.ActiveException(ctx, "pol-1", "u-1", to.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ActiveException: %v", err)
	}
	if got != nil {
		t.Errorf("exception = %+v, want nil outside window", got)
	}
}

func TestUserRole(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetRole(ctx, "u-1", "acme", "manager"); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	role, err := s.UserRole(ctx, "u-1", "acme")
	if err != nil {
		t.Fatalf("UserRole: %v", err)
	}
	if role != "manager" {
		t.Errorf("role = %q", role)
	}
	if _, err := s.UserRole(ctx, "u-2", "acme"); !errors.Is(err, policy.ErrUserNotFound) {
		t.Errorf("unknown user = %v", err)
	}
}

func TestSpendLedgerWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	from, to := compliance.MonthWindow(now)

	entries := []struct {
		status   string
		amount   float64
		bookedAt time.Time
	}{
		{"confirmed", 400, now.AddDate(0, 0, -2)},
		{"ticketed", 100, now.AddDate(0, 0, -1)},
		{"cancelled", 999, now},
		{"confirmed", 999, now.AddDate(0, -2, 0)},
	}
	for _, e := range entries {
		if err := s.RecordSpend(ctx, "u-1", "acme", e.status, e.amount, e.bookedAt); err != nil {
			t.Fatalf("RecordSpend: %v", err)
		}
	}

	sum, err := s.SumBookingAmount(ctx, "u-1", "acme", compliance.QualifyingStatuses, from, to)
	if err != nil {
		t.Fatalf("SumBookingAmount: %v", err)
	}
	if sum != 500 {
		t.Errorf("sum = %v, want 500", sum)
	}

	// No qualifying rows sums to zero, not an error.
	sum, err = s.SumBookingAmount(ctx, "nobody", "acme", compliance.QualifyingStatuses, from, to)
	if err != nil {
		t.Fatalf("SumBookingAmount: %v", err)
	}
	if sum != 0 {
		t.Errorf("sum = %v, want 0", sum)
	}
}

func TestAuditAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	records := []audit.Record{
		{
			ID: "r1", Timestamp: base, OrgID: "acme", UserID: "u-1",
			EventType: audit.EventPolicyApplied, Amount: 100, Currency: "EUR",
			Allowed: true, PolicySnapshot: []byte(`{"policyId":"pol-1"}`),
		},
		{
			ID: "r2", Timestamp: base.Add(time.Hour), OrgID: "acme", UserID: "u-1",
			EventType: audit.EventPolicyViolated, Amount: 2000, Currency: "EUR",
			Violations: "flight amount 2000.00 exceeds limit 800.00",
		},
		{
			ID: "r3", Timestamp: base.Add(2 * time.Hour), OrgID: "other", UserID: "u-9",
			EventType: audit.EventPolicyApplied, Allowed: true,
		},
	}
	if err := s.Append(ctx, records...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.Query(ctx, audit.Filter{
		StartTime: base, EndTime: base.Add(24 * time.Hour), OrgID: "acme",
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records = %d, want 2", len(got))
	}
	if got[0].ID != "r1" || got[1].ID != "r2" {
		t.Errorf("order = %s, %s, want chronological", got[0].ID, got[1].ID)
	}
	if !got[0].Allowed || got[0].Amount != 100 {
		t.Errorf("r1 = %+v", got[0])
	}
	if string(got[0].PolicySnapshot) != `{"policyId":"pol-1"}` {
		t.Errorf("snapshot = %s", got[0].PolicySnapshot)
	}

	got, err = s.Query(ctx, audit.Filter{
		StartTime: base, EndTime: base.Add(24 * time.Hour),
		EventType: audit.EventPolicyViolated,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r2" {
		t.Errorf("violation query = %+v", got)
	}
}
