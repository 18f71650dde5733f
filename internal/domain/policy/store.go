package policy

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	ErrPolicyNotFound    = errors.New("policy not found")
	ErrExceptionNotFound = errors.New("policy exception not found")
	ErrUserNotFound      = errors.New("user not found")
)

// Store persists and retrieves policies and exceptions. Policy and exception
// administration is owned by an external admin surface; the core consumes
// the two lookup methods and uses the CRUD methods for seeding and tests.
type Store interface {
	// EffectiveCandidate returns the highest-priority active policy for
	// the organization and role whose effective window contains now.
	// Ties break on higher priority, then most recent CreatedAt.
	// Returns (nil, nil) when no policy matches; absence is not an error.
	EffectiveCandidate(ctx context.Context, orgID, role string, now time.Time) (*TravelPolicy, error)

	// ActiveException returns the most recently created active exception
	// scoped to the policy and user whose validity window contains now,
	// or (nil, nil) when none applies.
	ActiveException(ctx context.Context, policyID, userID string, now time.Time) (*PolicyException, error)

	SavePolicy(ctx context.Context, p *TravelPolicy) error
	GetPolicy(ctx context.Context, id string) (*TravelPolicy, error)
	DeletePolicy(ctx context.Context, id string) error
	ListPolicies(ctx context.Context, orgID string) ([]TravelPolicy, error)

	SaveException(ctx context.Context, e *PolicyException) error
	DeleteException(ctx context.Context, id string) error
}

// Directory resolves a user's role within an organization. Identity is
// established upstream of the core; the directory is a read-only lookup.
type Directory interface {
	// UserRole returns the user's role in the organization.
	// Returns ErrUserNotFound when the user is unknown.
	UserRole(ctx context.Context, userID, orgID string) (string, error)
}
