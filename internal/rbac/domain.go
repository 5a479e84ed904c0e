// Package rbac resolves role based permissions and guards routes with them.
package rbac

import "context"

// RoleLookup returns the role assigned to a user.
type RoleLookup interface {
	UserRole(ctx context.Context, userID int64) (string, error)
}

// PermissionResolver lists the permissions a user holds.
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}
