package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/amsilks/amsilks-erp/internal/shared"
)

// ErrNotFound indicates that the user has no role record.
var ErrNotFound = fmt.Errorf("rbac: %w", shared.ErrNotFound)

// Service maps a user's role onto the static permission table.
type Service struct {
	roles RoleLookup
}

// NewService constructs a Service.
func NewService(roles RoleLookup) *Service {
	return &Service{roles: roles}
}

// EffectivePermissions returns the permissions granted to userID's role. A
// user without a role has no permissions.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	role, err := s.roles.UserRole(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("rbac: user role: %w", err)
	}
	return shared.RolePermissions(role), nil
}
