package commands

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/identity-access/authorization-service/application"
	"covenant/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "covenant/contexts/identity-access/authorization-service/domain/errors"
	"covenant/contexts/identity-access/authorization-service/ports"
	"covenant/internal/shared/audit"
)

type RevokeRoleCommand struct {
	UserID  string
	RoleID  string
	AdminID string
	Reason  string
}

type RevokeRoleResult struct {
	// Revoked is false when the user did not hold the role.
	Revoked bool
}

// RevokeRoleUseCase removes an active role assignment. Admin only.
type RevokeRoleUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc RevokeRoleUseCase) Execute(ctx context.Context, cmd RevokeRoleCommand) (RevokeRoleResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	userID := strings.TrimSpace(cmd.UserID)
	roleID := strings.TrimSpace(strings.ToLower(cmd.RoleID))
	adminID := strings.TrimSpace(cmd.AdminID)
	if userID == "" {
		return RevokeRoleResult{}, domainerrors.ErrInvalidUserID
	}
	if !entities.IsSupportedRole(roleID) {
		return RevokeRoleResult{}, domainerrors.ErrInvalidRoleID
	}
	isAdmin, err := uc.Repository.HasAnyRole(ctx, adminID, entities.RoleAdmin)
	if err != nil {
		return RevokeRoleResult{}, err
	}
	if !isAdmin {
		return RevokeRoleResult{}, domainerrors.ErrForbidden
	}

	now := uc.Clock.Now().UTC()
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return RevokeRoleResult{}, err
	}
	entry, err := audit.NewEntry(auditID, adminID, "role.revoked", "role_assignment", userID+":"+roleID, map[string]any{
		"user_id": userID,
		"role_id": roleID,
		"reason":  strings.TrimSpace(cmd.Reason),
	}, now)
	if err != nil {
		return RevokeRoleResult{}, err
	}

	revoked, err := uc.Repository.RevokeRole(ctx, userID, roleID, now, entry)
	if err != nil {
		return RevokeRoleResult{}, err
	}

	logger.Info("role revoked",
		"event", "authz_role_revoked",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", userID,
		"role_id", roleID,
		"revoked", revoked,
	)
	return RevokeRoleResult{Revoked: revoked}, nil
}
