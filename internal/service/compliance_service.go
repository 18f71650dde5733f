package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	celgo "github.com/google/cel-go/cel"
	"github.com/google/uuid"

	rulecel "github.com/tripforge/tripforge/internal/adapter/outbound/cel"
	"github.com/tripforge/tripforge/internal/ctxkey"
	"github.com/tripforge/tripforge/internal/domain/audit"
	"github.com/tripforge/tripforge/internal/domain/compliance"
	"github.com/tripforge/tripforge/internal/domain/policy"
	"github.com/tripforge/tripforge/internal/domain/travel"
	"github.com/tripforge/tripforge/internal/observability"
)

// PolicyResolver resolves the effective policy for one evaluation.
// Implemented by PolicyService.
type PolicyResolver interface {
	Resolve(ctx context.Context, userID, orgID string) (*policy.EffectivePolicy, error)
}

// UsageRecorder accepts audit records without blocking the caller.
// Implemented by AuditService.
type UsageRecorder interface {
	Record(record audit.Record)
}

// ComplianceService evaluates booking requests against the effective
// policy. Every applicable check runs and appends to the verdict's
// violation list; a failed check is data, not an error. Only
// infrastructure failures (store or ledger unreachable) return an error.
type ComplianceService struct {
	policies  PolicyResolver
	directory policy.Directory
	ledger    compliance.SpendLedger
	recorder  UsageRecorder
	evaluator *rulecel.Evaluator
	validate  *validator.Validate
	logger    *slog.Logger
	metrics   *observability.Metrics
	now       func() time.Time

	// programs caches compiled custom rule expressions. Policies change
	// rarely relative to evaluations, so the cache is never invalidated,
	// only grown; a changed expression is simply a new key.
	mu       sync.RWMutex
	programs map[string]celgo.Program
}

// ComplianceOption configures ComplianceService.
type ComplianceOption func(*ComplianceService)

// WithComplianceClock overrides the time source, for tests.
func WithComplianceClock(now func() time.Time) ComplianceOption {
	return func(s *ComplianceService) {
		s.now = now
	}
}

// WithComplianceMetrics attaches the evaluation counter.
func WithComplianceMetrics(m *observability.Metrics) ComplianceOption {
	return func(s *ComplianceService) {
		s.metrics = m
	}
}

// NewComplianceService creates the evaluator. The recorder may be nil,
// in which case evaluations are not audited.
func NewComplianceService(
	policies PolicyResolver,
	directory policy.Directory,
	ledger compliance.SpendLedger,
	recorder UsageRecorder,
	evaluator *rulecel.Evaluator,
	logger *slog.Logger,
	opts ...ComplianceOption,
) *ComplianceService {
	s := &ComplianceService{
		policies:  policies,
		directory: directory,
		ledger:    ledger,
		recorder:  recorder,
		evaluator: evaluator,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
		programs:  make(map[string]celgo.Program),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate produces a compliance verdict for the booking request. Absence
// of a governing policy is a valid state: the request is allowed with
// PolicyApplied=false. The evaluation is recorded to the audit trail
// regardless of outcome; recording failures never surface here.
func (s *ComplianceService) Evaluate(ctx context.Context, userID, orgID string, req compliance.BookingRequest) (*compliance.Verdict, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &travel.ValidationError{Field: "bookingRequest", Message: err.Error()}
	}
	now := s.now()

	effective, err := s.policies.Resolve(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("resolving policy: %w", err)
	}

	total := req.TotalAmount
	if total == 0 {
		total = req.Amount
	}

	if effective == nil {
		s.logger.Info("no policy applied, booking allowed",
			"user", userID, "org", orgID, "category", req.Category)
		verdict := &compliance.Verdict{
			Allowed:       true,
			PolicyApplied: false,
		}
		s.record(ctx, userID, orgID, req, total, verdict, nil, now)
		s.countEvaluation(verdict)
		return verdict, nil
	}

	monthFrom, monthTo := compliance.MonthWindow(now)
	monthlySpent, err := s.ledger.SumBookingAmount(ctx, userID, orgID, compliance.QualifyingStatuses, monthFrom, monthTo)
	if err != nil {
		return nil, fmt.Errorf("summing monthly spend: %w", err)
	}
	yearFrom, yearTo := compliance.YearWindow(now)
	annualSpent, err := s.ledger.SumBookingAmount(ctx, userID, orgID, compliance.QualifyingStatuses, yearFrom, yearTo)
	if err != nil {
		return nil, fmt.Errorf("summing annual spend: %w", err)
	}

	var violations []string

	if req.Category == compliance.CategoryFlight {
		if effective.FlightMaxAmount != nil && req.Amount > *effective.FlightMaxAmount {
			violations = append(violations,
				fmt.Sprintf("flight amount %.2f exceeds maximum %.2f", req.Amount, *effective.FlightMaxAmount))
		}
		if req.CabinClass != "" && !effective.CabinAllowed(req.CabinClass) {
			violations = append(violations,
				fmt.Sprintf("cabin class %q is not permitted", req.CabinClass))
		}
	}

	if req.Category == compliance.CategoryHotel {
		if effective.HotelMaxPerNight != nil && req.Nights > 0 {
			perNight := req.Amount / float64(req.Nights)
			if perNight > *effective.HotelMaxPerNight {
				violations = append(violations,
					fmt.Sprintf("hotel rate %.2f per night exceeds maximum %.2f", perNight, *effective.HotelMaxPerNight))
			}
		}
		if effective.HotelMaxTotal != nil && total > *effective.HotelMaxTotal {
			violations = append(violations,
				fmt.Sprintf("hotel total %.2f exceeds maximum %.2f", total, *effective.HotelMaxTotal))
		}
	}

	if effective.AdvanceBookingDays != nil && req.DepartureDate != nil {
		days := ceilDays(now, *req.DepartureDate)
		if days < int64(*effective.AdvanceBookingDays) {
			violations = append(violations,
				fmt.Sprintf("booking %d days in advance is under the %d day minimum", days, *effective.AdvanceBookingDays))
		}
	}

	if effective.MaxTripDurationDays != nil && req.DepartureDate != nil && req.ReturnDate != nil {
		days := ceilDays(*req.DepartureDate, *req.ReturnDate)
		if days > int64(*effective.MaxTripDurationDays) {
			violations = append(violations,
				fmt.Sprintf("trip of %d days exceeds the %d day maximum", days, *effective.MaxTripDurationDays))
		}
	}

	if effective.MonthlyLimit != nil && monthlySpent+total > *effective.MonthlyLimit {
		violations = append(violations,
			fmt.Sprintf("monthly spend %.2f plus booking %.2f exceeds limit %.2f", monthlySpent, total, *effective.MonthlyLimit))
	}
	if effective.AnnualLimit != nil && annualSpent+total > *effective.AnnualLimit {
		violations = append(violations,
			fmt.Sprintf("annual spend %.2f plus booking %.2f exceeds limit %.2f", annualSpent, total, *effective.AnnualLimit))
	}

	violations = append(violations, s.evaluateCustomRules(ctx, userID, orgID, req, effective, monthlySpent, annualSpent, now)...)

	allowed := len(violations) == 0

	requiresApproval := false
	if allowed && effective.RequiresApprovalAbove != nil && total > *effective.RequiresApprovalAbove {
		requiresApproval = true
	}
	// Auto-approve takes precedence over the approval threshold.
	if effective.AutoApproveBelow != nil && total < *effective.AutoApproveBelow {
		requiresApproval = false
	}

	managerOverride := false
	if !allowed && effective.AllowManagerOverride {
		allowed = true
		requiresApproval = true
		managerOverride = true
	}

	verdict := &compliance.Verdict{
		Allowed:          allowed,
		RequiresApproval: requiresApproval,
		Violations:       violations,
		Limits:           buildLimitsSnapshot(effective, monthlySpent, annualSpent, total),
		PolicyID:         effective.PolicyID,
		ExceptionID:      effective.ExceptionID,
		PolicyApplied:    true,
		ManagerOverride:  managerOverride,
	}
	s.record(ctx, userID, orgID, req, total, verdict, effective, now)
	s.countEvaluation(verdict)
	return verdict, nil
}

func (s *ComplianceService) countEvaluation(verdict *compliance.Verdict) {
	if s.metrics == nil {
		return
	}
	result := "allow"
	switch {
	case !verdict.Allowed:
		result = "deny"
	case verdict.RequiresApproval:
		result = "needs_approval"
	}
	s.metrics.PolicyEvaluations.WithLabelValues(result).Inc()
}

// evaluateCustomRules runs the policy's CEL rules. A rule that fails to
// compile or evaluate is logged and skipped: a broken rule must not block
// bookings.
func (s *ComplianceService) evaluateCustomRules(
	ctx context.Context,
	userID, orgID string,
	req compliance.BookingRequest,
	effective *policy.EffectivePolicy,
	monthlySpent, annualSpent float64,
	now time.Time,
) []string {
	if len(effective.CustomRules) == 0 || s.evaluator == nil {
		return nil
	}

	role, err := s.directory.UserRole(ctx, userID, orgID)
	if err != nil {
		s.logger.Warn("role lookup for custom rules failed", "user", userID, "error", err)
	}

	input := rulecel.RuleInput{
		UserID:       userID,
		OrgID:        orgID,
		Role:         role,
		Request:      req,
		MonthlySpent: monthlySpent,
		AnnualSpent:  annualSpent,
		Now:          now,
	}

	var violations []string
	for _, rule := range effective.CustomRules {
		prg, err := s.program(rule.Expression)
		if err != nil {
			s.logger.Warn("custom rule failed to compile, skipping",
				"rule", rule.Name, "policy", effective.PolicyID, "error", err)
			continue
		}
		flagged, err := s.evaluator.Evaluate(prg, input)
		if err != nil {
			s.logger.Warn("custom rule evaluation failed, skipping",
				"rule", rule.Name, "policy", effective.PolicyID, "error", err)
			continue
		}
		if flagged {
			msg := rule.Message
			if msg == "" {
				msg = fmt.Sprintf("custom rule %q flagged this booking", rule.Name)
			}
			violations = append(violations, msg)
		}
	}
	return violations
}

// program returns the compiled program for an expression, compiling and
// caching it on first use.
func (s *ComplianceService) program(expression string) (celgo.Program, error) {
	s.mu.RLock()
	prg, ok := s.programs[expression]
	s.mu.RUnlock()
	if ok {
		return prg, nil
	}

	prg, err := s.evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.programs[expression] = prg
	s.mu.Unlock()
	return prg, nil
}

// record emits the audit trail entry for one evaluation. Best effort:
// serialization problems are logged, never surfaced.
func (s *ComplianceService) record(
	ctx context.Context,
	userID, orgID string,
	req compliance.BookingRequest,
	total float64,
	verdict *compliance.Verdict,
	effective *policy.EffectivePolicy,
	now time.Time,
) {
	if s.recorder == nil {
		return
	}

	eventType := audit.EventPolicyApplied
	if len(verdict.Violations) > 0 {
		eventType = audit.EventPolicyViolated
	}

	var snapshot json.RawMessage
	if effective != nil {
		data, err := json.Marshal(effective)
		if err != nil {
			s.logger.Warn("failed to snapshot effective policy for audit",
				"policy", effective.PolicyID, "error", err)
		} else {
			snapshot = data
		}
	}

	requestID, _ := ctx.Value(ctxkey.RequestIDKey{}).(string)

	s.recorder.Record(audit.Record{
		ID:               uuid.NewString(),
		Timestamp:        now.UTC(),
		OrgID:            orgID,
		UserID:           userID,
		PolicyID:         verdict.PolicyID,
		ExceptionID:      verdict.ExceptionID,
		BookingID:        req.BookingID,
		EventType:        eventType,
		PolicySnapshot:   snapshot,
		Amount:           total,
		Currency:         req.Currency,
		LimitChecked:     limitChecked(effective, req.Category),
		Allowed:          verdict.Allowed,
		RequiresApproval: verdict.RequiresApproval,
		Violations:       strings.Join(verdict.Violations, "; "),
		RequestID:        requestID,
	})
}

// limitChecked names the tightest limit consulted for the category, for
// the audit record.
func limitChecked(effective *policy.EffectivePolicy, category compliance.Category) string {
	if effective == nil {
		return ""
	}
	switch category {
	case compliance.CategoryFlight:
		if effective.FlightMaxAmount != nil {
			return fmt.Sprintf("flightMaxAmount=%.2f", *effective.FlightMaxAmount)
		}
	case compliance.CategoryHotel:
		if effective.HotelMaxTotal != nil {
			return fmt.Sprintf("hotelMaxTotal=%.2f", *effective.HotelMaxTotal)
		}
		if effective.HotelMaxPerNight != nil {
			return fmt.Sprintf("hotelMaxPerNight=%.2f", *effective.HotelMaxPerNight)
		}
	}
	if effective.MonthlyLimit != nil {
		return fmt.Sprintf("monthlyLimit=%.2f", *effective.MonthlyLimit)
	}
	if effective.AnnualLimit != nil {
		return fmt.Sprintf("annualLimit=%.2f", *effective.AnnualLimit)
	}
	return ""
}

// buildLimitsSnapshot copies the consulted limits plus spend figures into
// the verdict. Remaining budget counts the evaluated booking as spent and
// is clamped at zero.
func buildLimitsSnapshot(effective *policy.EffectivePolicy, monthlySpent, annualSpent, total float64) compliance.LimitsSnapshot {
	snap := compliance.LimitsSnapshot{
		FlightMaxAmount:  copyFloat(effective.FlightMaxAmount),
		HotelMaxPerNight: copyFloat(effective.HotelMaxPerNight),
		HotelMaxTotal:    copyFloat(effective.HotelMaxTotal),
		MonthlyLimit:     copyFloat(effective.MonthlyLimit),
		MonthlySpent:     monthlySpent,
		AnnualLimit:      copyFloat(effective.AnnualLimit),
		AnnualSpent:      annualSpent,
	}
	if effective.MonthlyLimit != nil {
		rem := *effective.MonthlyLimit - monthlySpent - total
		if rem < 0 {
			rem = 0
		}
		snap.MonthlyRemaining = &rem
	}
	if effective.AnnualLimit != nil {
		rem := *effective.AnnualLimit - annualSpent - total
		if rem < 0 {
			rem = 0
		}
		snap.AnnualRemaining = &rem
	}
	return snap
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ceilDays returns ceil((to - from) / 1 day).
func ceilDays(from, to time.Time) int64 {
	diff := to.Sub(from)
	days := diff / (24 * time.Hour)
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return int64(days)
}
