package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tripforge/tripforge/internal/domain/policy"
)

// PolicyService resolves the effective policy for a user at a point in
// time: directory role lookup, base policy selection, then at most one
// currently-valid exception merged on top.
type PolicyService struct {
	store     policy.Store
	directory policy.Directory
	logger    *slog.Logger
	now       func() time.Time
}

// PolicyOption configures PolicyService.
type PolicyOption func(*PolicyService)

// WithPolicyClock overrides the time source, for tests.
func WithPolicyClock(now func() time.Time) PolicyOption {
	return func(s *PolicyService) {
		s.now = now
	}
}

// NewPolicyService creates the resolver.
func NewPolicyService(store policy.Store, directory policy.Directory, logger *slog.Logger, opts ...PolicyOption) *PolicyService {
	s := &PolicyService{
		store:     store,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the effective policy for the user, or (nil, nil) when no
// policy governs them. Absence of a policy is a valid state, not an error:
// the compliance evaluator treats it as unrestricted.
func (s *PolicyService) Resolve(ctx context.Context, userID, orgID string) (*policy.EffectivePolicy, error) {
	now := s.now()

	role, err := s.directory.UserRole(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("resolving role for user %s: %w", userID, err)
	}

	base, err := s.store.EffectiveCandidate(ctx, orgID, role, now)
	if err != nil {
		return nil, fmt.Errorf("selecting policy: %w", err)
	}
	if base == nil {
		s.logger.Debug("no policy governs user", "user", userID, "org", orgID, "role", role)
		return nil, nil
	}

	exc, err := s.store.ActiveException(ctx, base.ID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("selecting exception: %w", err)
	}

	effective := policy.Merge(base, exc)
	if exc != nil {
		s.logger.Debug("exception applied",
			"user", userID, "policy", base.ID, "exception", exc.ID)
	}
	return effective, nil
}
