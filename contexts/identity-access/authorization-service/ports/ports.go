package ports

import (
	"context"
	"time"

	"covenant/contexts/identity-access/authorization-service/domain/entities"
	"covenant/internal/shared/audit"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// GrantResult reports whether the grant created a new assignment or found
// an existing active one.
type GrantResult struct {
	Assignment entities.RoleAssignment
	Created    bool
}

type Repository interface {
	// GrantRole inserts an active assignment or returns the existing one.
	GrantRole(ctx context.Context, assignment entities.RoleAssignment, entry audit.Entry) (GrantResult, error)
	// RevokeRole stamps revoked_at on the active assignment. Revoking a
	// role the user does not hold is a no-op.
	RevokeRole(ctx context.Context, userID, roleID string, at time.Time, entry audit.Entry) (bool, error)
	ListUserRoles(ctx context.Context, userID string) ([]entities.RoleAssignment, error)
	HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error)
	// CountActiveByRole backs the bootstrap rule for the first admin grant.
	CountActiveByRole(ctx context.Context, roleID string) (int64, error)
}
