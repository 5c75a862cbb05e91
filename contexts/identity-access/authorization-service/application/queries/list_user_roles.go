package queries

import (
	"context"
	"log/slog"
	"strings"

	"covenant/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "covenant/contexts/identity-access/authorization-service/domain/errors"
	"covenant/contexts/identity-access/authorization-service/ports"
)

type ListUserRolesQuery struct {
	UserID string
}

type ListUserRolesUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

// Execute returns the user's active role assignments.
func (uc ListUserRolesUseCase) Execute(ctx context.Context, query ListUserRolesQuery) ([]entities.RoleAssignment, error) {
	userID := strings.TrimSpace(query.UserID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidUserID
	}
	return uc.Repository.ListUserRoles(ctx, userID)
}
