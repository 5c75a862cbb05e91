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

type GrantRoleCommand struct {
	UserID  string
	RoleID  string
	AdminID string
	Reason  string
}

// GrantRoleUseCase assigns a platform role. Idempotent: granting a role the
// user already holds returns the existing assignment. Only admins may
// grant, except the very first admin grant which bootstraps the system.
type GrantRoleUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc GrantRoleUseCase) Execute(ctx context.Context, cmd GrantRoleCommand) (ports.GrantResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	userID := strings.TrimSpace(cmd.UserID)
	roleID := strings.TrimSpace(strings.ToLower(cmd.RoleID))
	adminID := strings.TrimSpace(cmd.AdminID)
	if userID == "" {
		return ports.GrantResult{}, domainerrors.ErrInvalidUserID
	}
	if !entities.IsSupportedRole(roleID) {
		return ports.GrantResult{}, domainerrors.ErrInvalidRoleID
	}

	if err := uc.authorizeGrant(ctx, adminID); err != nil {
		return ports.GrantResult{}, err
	}

	now := uc.Clock.Now().UTC()
	assignmentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.GrantResult{}, err
	}
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.GrantResult{}, err
	}
	entry, err := audit.NewEntry(auditID, adminID, "role.granted", "role_assignment", assignmentID, map[string]any{
		"user_id": userID,
		"role_id": roleID,
		"reason":  strings.TrimSpace(cmd.Reason),
	}, now)
	if err != nil {
		return ports.GrantResult{}, err
	}

	result, err := uc.Repository.GrantRole(ctx, entities.RoleAssignment{
		AssignmentID: assignmentID,
		UserID:       userID,
		RoleID:       roleID,
		AssignedBy:   adminID,
		Reason:       strings.TrimSpace(cmd.Reason),
		AssignedAt:   now,
	}, entry)
	if err != nil {
		return ports.GrantResult{}, err
	}

	logger.Info("role granted",
		"event", "authz_role_granted",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", userID,
		"role_id", roleID,
		"created", result.Created,
	)
	return result, nil
}

func (uc GrantRoleUseCase) authorizeGrant(ctx context.Context, adminID string) error {
	if adminID == "" {
		return domainerrors.ErrForbidden
	}
	isAdmin, err := uc.Repository.HasAnyRole(ctx, adminID, entities.RoleAdmin)
	if err != nil {
		return err
	}
	if isAdmin {
		return nil
	}
	admins, err := uc.Repository.CountActiveByRole(ctx, entities.RoleAdmin)
	if err != nil {
		return err
	}
	if admins == 0 {
		return nil
	}
	return domainerrors.ErrForbidden
}
