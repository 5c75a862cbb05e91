package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"covenant/contexts/identity-access/authorization-service/application/commands"
	"covenant/contexts/identity-access/authorization-service/application/queries"
	"covenant/contexts/identity-access/authorization-service/domain/entities"
	httptransport "covenant/contexts/identity-access/authorization-service/transport/http"
)

type Handler struct {
	GrantRole       commands.GrantRoleUseCase
	RevokeRole      commands.RevokeRoleUseCase
	CheckPermission queries.CheckPermissionUseCase
	ListUserRoles   queries.ListUserRolesUseCase
	Logger          *slog.Logger
}

func (h Handler) GrantRoleHandler(ctx context.Context, adminID string, req httptransport.GrantRoleRequest) (httptransport.GrantRoleResponse, error) {
	result, err := h.GrantRole.Execute(ctx, commands.GrantRoleCommand{
		UserID:  req.UserID,
		RoleID:  req.RoleID,
		AdminID: adminID,
		Reason:  req.Reason,
	})
	if err != nil {
		return httptransport.GrantRoleResponse{}, err
	}
	return httptransport.GrantRoleResponse{
		Assignment: mapAssignment(result.Assignment),
		Created:    result.Created,
	}, nil
}

func (h Handler) RevokeRoleHandler(ctx context.Context, adminID string, req httptransport.RevokeRoleRequest) (httptransport.RevokeRoleResponse, error) {
	result, err := h.RevokeRole.Execute(ctx, commands.RevokeRoleCommand{
		UserID:  req.UserID,
		RoleID:  req.RoleID,
		AdminID: adminID,
		Reason:  req.Reason,
	})
	if err != nil {
		return httptransport.RevokeRoleResponse{}, err
	}
	return httptransport.RevokeRoleResponse{Revoked: result.Revoked}, nil
}

func (h Handler) CheckPermissionHandler(ctx context.Context, req httptransport.CheckPermissionRequest) (httptransport.CheckPermissionResponse, error) {
	allowed, err := h.CheckPermission.Execute(ctx, queries.CheckPermissionQuery{
		UserID: req.UserID,
		Roles:  req.Roles,
	})
	if err != nil {
		return httptransport.CheckPermissionResponse{}, err
	}
	return httptransport.CheckPermissionResponse{Allowed: allowed}, nil
}

func (h Handler) ListUserRolesHandler(ctx context.Context, userID string) (httptransport.ListUserRolesResponse, error) {
	assignments, err := h.ListUserRoles.Execute(ctx, queries.ListUserRolesQuery{UserID: userID})
	if err != nil {
		return httptransport.ListUserRolesResponse{}, err
	}
	items := make([]httptransport.RoleAssignmentDTO, 0, len(assignments))
	for _, assignment := range assignments {
		items = append(items, mapAssignment(assignment))
	}
	return httptransport.ListUserRolesResponse{Items: items}, nil
}

func mapAssignment(assignment entities.RoleAssignment) httptransport.RoleAssignmentDTO {
	result := httptransport.RoleAssignmentDTO{
		AssignmentID: assignment.AssignmentID,
		UserID:       assignment.UserID,
		RoleID:       assignment.RoleID,
		AssignedBy:   assignment.AssignedBy,
		Reason:       assignment.Reason,
		AssignedAt:   assignment.AssignedAt.UTC().Format(time.RFC3339),
	}
	if assignment.RevokedAt != nil {
		result.RevokedAt = assignment.RevokedAt.UTC().Format(time.RFC3339)
	}
	return result
}
