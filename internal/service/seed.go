package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	rulecel "github.com/tripforge/tripforge/internal/adapter/outbound/cel"
	"github.com/tripforge/tripforge/internal/domain/policy"
)

// RoleWriter records user roles. Implemented by the memory directory and
// the sqlite store.
type RoleWriter interface {
	SetRole(ctx context.Context, userID, orgID, role string) error
}

// SeedUser is one user-to-role assignment in a seed file.
type SeedUser struct {
	UserID string `yaml:"userId"`
	OrgID  string `yaml:"orgId"`
	Role   string `yaml:"role"`
}

// PolicySeed is the parsed contents of a policy seed file: base policies,
// exceptions, and user role assignments, loaded at startup so a fresh
// deployment has a working ruleset without an admin surface.
type PolicySeed struct {
	Policies   []policy.TravelPolicy    `yaml:"policies"`
	Exceptions []policy.PolicyException `yaml:"exceptions"`
	Users      []SeedUser               `yaml:"users"`
}

// LoadPolicySeed reads and validates a YAML seed file. Custom rule
// expressions are compile-checked here so an invalid expression cannot
// poison the policy store.
func LoadPolicySeed(path string, evaluator *rulecel.Evaluator) (*PolicySeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seed PolicySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	for _, p := range seed.Policies {
		if p.ID == "" {
			return nil, fmt.Errorf("seed policy %q has no id", p.Name)
		}
		if p.OrgID == "" || p.Role == "" {
			return nil, fmt.Errorf("seed policy %s needs orgId and role", p.ID)
		}
		for _, rule := range p.CustomRules {
			if err := evaluator.ValidateExpression(rule.Expression); err != nil {
				return nil, fmt.Errorf("policy %s rule %q: %w", p.ID, rule.Name, err)
			}
		}
	}
	for _, e := range seed.Exceptions {
		if e.ID == "" || e.PolicyID == "" || e.UserID == "" {
			return nil, fmt.Errorf("seed exception %q needs id, policyId and userId", e.ID)
		}
	}
	for _, u := range seed.Users {
		if u.UserID == "" || u.OrgID == "" || u.Role == "" {
			return nil, fmt.Errorf("seed user %q needs userId, orgId and role", u.UserID)
		}
	}
	return &seed, nil
}

// ApplySeed writes the seed's policies, exceptions, and role assignments
// to the store and directory.
func ApplySeed(ctx context.Context, seed *PolicySeed, store policy.Store, roles RoleWriter, logger *slog.Logger) error {
	for i := range seed.Policies {
		if err := store.SavePolicy(ctx, &seed.Policies[i]); err != nil {
			return fmt.Errorf("saving seed policy %s: %w", seed.Policies[i].ID, err)
		}
	}
	for i := range seed.Exceptions {
		if err := store.SaveException(ctx, &seed.Exceptions[i]); err != nil {
			return fmt.Errorf("saving seed exception %s: %w", seed.Exceptions[i].ID, err)
		}
	}
	for _, u := range seed.Users {
		if err := roles.SetRole(ctx, u.UserID, u.OrgID, u.Role); err != nil {
			return fmt.Errorf("assigning role for user %s: %w", u.UserID, err)
		}
	}
	logger.Info("policy seed applied",
		"policies", len(seed.Policies),
		"exceptions", len(seed.Exceptions),
		"users", len(seed.Users))
	return nil
}
