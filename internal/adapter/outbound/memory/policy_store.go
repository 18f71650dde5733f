// Package memory provides in-memory store implementations. Thread-safe;
// intended for development, tests, and single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tripforge/tripforge/internal/domain/policy"
)

// PolicyStore implements policy.Store with in-memory maps.
type PolicyStore struct {
	mu         sync.RWMutex
	policies   map[string]*policy.TravelPolicy
	exceptions map[string]*policy.PolicyException
}

var _ policy.Store = (*PolicyStore)(nil)

// NewPolicyStore creates an empty in-memory policy store.
func NewPolicyStore() *PolicyStore {
	return &PolicyStore{
		policies:   make(map[string]*policy.TravelPolicy),
		exceptions: make(map[string]*policy.PolicyException),
	}
}

// EffectiveCandidate returns the winning active policy for the organization
// and role, or (nil, nil) when none matches. Ties break on higher priority,
// then most recent CreatedAt, then lexicographically greatest ID so the
// outcome is deterministic.
func (s *PolicyStore) EffectiveCandidate(ctx context.Context, orgID, role string, now time.Time) (*policy.TravelPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*policy.TravelPolicy
	for _, p := range s.policies {
		if p.OrgID == orgID && p.Role == role && p.ActiveAt(now) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return copyPolicy(candidates[0]), nil
}

// ActiveException returns the most recently created currently-valid
// exception for the policy and user, or (nil, nil) when none applies.
func (s *PolicyStore) ActiveException(ctx context.Context, policyID, userID string, now time.Time) (*policy.PolicyException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *policy.PolicyException
	for _, e := range s.exceptions {
		if e.PolicyID != policyID || e.UserID != userID || !e.ActiveAt(now) {
			continue
		}
		if best == nil || e.CreatedAt.After(best.CreatedAt) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	return copyException(best), nil
}

// SavePolicy creates or updates a policy.
func (s *PolicyStore) SavePolicy(ctx context.Context, p *policy.TravelPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = copyPolicy(p)
	return nil
}

// GetPolicy returns a policy by id.
func (s *PolicyStore) GetPolicy(ctx context.Context, id string) (*policy.TravelPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, policy.ErrPolicyNotFound
	}
	return copyPolicy(p), nil
}

// DeletePolicy removes a policy by id.
func (s *PolicyStore) DeletePolicy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[id]; !ok {
		return policy.ErrPolicyNotFound
	}
	delete(s.policies, id)
	return nil
}

// ListPolicies returns all policies for an organization, highest priority
// first.
func (s *PolicyStore) ListPolicies(ctx context.Context, orgID string) ([]policy.TravelPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []policy.TravelPolicy
	for _, p := range s.policies {
		if p.OrgID == orgID {
			out = append(out, *copyPolicy(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveException creates or updates an exception.
func (s *PolicyStore) SaveException(ctx context.Context, e *policy.PolicyException) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions[e.ID] = copyException(e)
	return nil
}

// DeleteException removes an exception by id.
func (s *PolicyStore) DeleteException(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exceptions[id]; !ok {
		return policy.ErrExceptionNotFound
	}
	delete(s.exceptions, id)
	return nil
}

// copyPolicy deep-copies a policy so callers cannot mutate stored state.
func copyPolicy(p *policy.TravelPolicy) *policy.TravelPolicy {
	c := *p
	c.EffectiveFrom = copyTimePtr(p.EffectiveFrom)
	c.EffectiveTo = copyTimePtr(p.EffectiveTo)
	c.FlightMaxAmount = copyFloatPtr(p.FlightMaxAmount)
	c.HotelMaxPerNight = copyFloatPtr(p.HotelMaxPerNight)
	c.HotelMaxTotal = copyFloatPtr(p.HotelMaxTotal)
	c.MonthlyLimit = copyFloatPtr(p.MonthlyLimit)
	c.AnnualLimit = copyFloatPtr(p.AnnualLimit)
	c.RequiresApprovalAbove = copyFloatPtr(p.RequiresApprovalAbove)
	c.AutoApproveBelow = copyFloatPtr(p.AutoApproveBelow)
	c.AdvanceBookingDays = copyIntPtr(p.AdvanceBookingDays)
	c.MaxTripDurationDays = copyIntPtr(p.MaxTripDurationDays)
	c.AllowedCabinClasses = append(c.AllowedCabinClasses[:0:0], p.AllowedCabinClasses...)
	c.CustomRules = append(c.CustomRules[:0:0], p.CustomRules...)
	return &c
}

func copyException(e *policy.PolicyException) *policy.PolicyException {
	c := *e
	c.ValidFrom = copyTimePtr(e.ValidFrom)
	c.ValidTo = copyTimePtr(e.ValidTo)
	c.FlightMaxAmount = copyFloatPtr(e.FlightMaxAmount)
	c.HotelMaxPerNight = copyFloatPtr(e.HotelMaxPerNight)
	c.HotelMaxTotal = copyFloatPtr(e.HotelMaxTotal)
	return &c
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

func copyIntPtr(i *int) *int {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
