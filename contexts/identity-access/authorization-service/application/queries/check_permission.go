package queries

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/identity-access/authorization-service/application"
	domainerrors "covenant/contexts/identity-access/authorization-service/domain/errors"
	"covenant/contexts/identity-access/authorization-service/ports"
)

type CheckPermissionQuery struct {
	UserID string
	Roles  []string
}

// CheckPermissionUseCase answers whether a user currently holds any of the
// given roles. Other services consume this through the PermissionChecker
// client in the bootstrap wiring.
type CheckPermissionUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func (uc CheckPermissionUseCase) Execute(ctx context.Context, query CheckPermissionQuery) (bool, error) {
	userID := strings.TrimSpace(query.UserID)
	if userID == "" {
		return false, domainerrors.ErrInvalidUserID
	}
	roles := make([]string, 0, len(query.Roles))
	for _, role := range query.Roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return false, domainerrors.ErrInvalidRoleID
	}

	allowed, err := uc.Repository.HasAnyRole(ctx, userID, roles...)
	if err != nil {
		return false, err
	}

	application.ResolveLogger(uc.Logger).Debug("permission checked",
		"event", "authz_permission_checked",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", userID,
		"allowed", allowed,
	)
	return allowed, nil
}
