package memory

import (
	"context"
	"sync"

	"github.com/tripforge/tripforge/internal/domain/policy"
)

// Directory implements policy.Directory with an in-memory user-role map.
type Directory struct {
	mu    sync.RWMutex
	roles map[string]string // orgID + "/" + userID -> role
}

var _ policy.Directory = (*Directory)(nil)

// NewDirectory creates an empty in-memory directory.
func NewDirectory() *Directory {
	return &Directory{roles: make(map[string]string)}
}

// SetRole records a user's role within an organization.
func (d *Directory) SetRole(ctx context.Context, userID, orgID, role string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[orgID+"/"+userID] = role
	return nil
}

// UserRole returns the user's role in the organization.
func (d *Directory) UserRole(ctx context.Context, userID, orgID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	role, ok := d.roles[orgID+"/"+userID]
	if !ok {
		return "", policy.ErrUserNotFound
	}
	return role, nil
}
