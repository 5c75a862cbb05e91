package unit

import (
	"context"
	"errors"
	"testing"

	authorizationservice "covenant/contexts/identity-access/authorization-service"
	domainerrors "covenant/contexts/identity-access/authorization-service/domain/errors"
	authzhttp "covenant/contexts/identity-access/authorization-service/transport/http"
)

func grantRole(t *testing.T, module authorizationservice.Module, adminID, userID, roleID string) authzhttp.GrantRoleResponse {
	t.Helper()
	granted, err := module.Handler.GrantRoleHandler(context.Background(), adminID, authzhttp.GrantRoleRequest{
		UserID: userID,
		RoleID: roleID,
		Reason: "staffing",
	})
	if err != nil {
		t.Fatalf("grant %s to %s failed: %v", roleID, userID, err)
	}
	return granted
}

func TestFirstAdminGrantBootstraps(t *testing.T) {
	module := authorizationservice.NewInMemoryModule(nil, nil)

	granted := grantRole(t, module, "founder-1", "founder-1", "admin")
	if !granted.Created {
		t.Fatalf("expected bootstrap grant to create an assignment")
	}
	if granted.Assignment.RoleID != "admin" || granted.Assignment.UserID != "founder-1" {
		t.Fatalf("unexpected assignment %+v", granted.Assignment)
	}

	check, err := module.Handler.CheckPermissionHandler(context.Background(), authzhttp.CheckPermissionRequest{
		UserID: "founder-1",
		Roles:  []string{"admin"},
	})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !check.Allowed {
		t.Fatalf("expected founder to hold admin")
	}
}

func TestGrantRequiresAdminOnceBootstrapped(t *testing.T) {
	module := authorizationservice.NewInMemoryModule(nil, nil)
	grantRole(t, module, "founder-1", "founder-1", "admin")

	_, err := module.Handler.GrantRoleHandler(context.Background(), "user-2", authzhttp.GrantRoleRequest{
		UserID: "user-2",
		RoleID: "moderator",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin grant, got %v", err)
	}

	granted := grantRole(t, module, "founder-1", "user-2", "moderator")
	if !granted.Created {
		t.Fatalf("expected admin grant to create an assignment")
	}
}

func TestGrantIsIdempotentPerActiveRole(t *testing.T) {
	module := authorizationservice.NewInMemoryModule(nil, nil)
	grantRole(t, module, "founder-1", "founder-1", "admin")

	first := grantRole(t, module, "founder-1", "user-2", "moderator")
	replay := grantRole(t, module, "founder-1", "user-2", "moderator")
	if replay.Created {
		t.Fatalf("expected replayed grant to reuse the active assignment")
	}
	if replay.Assignment.AssignmentID != first.Assignment.AssignmentID {
		t.Fatalf("expected the original assignment back, got %s vs %s", replay.Assignment.AssignmentID, first.Assignment.AssignmentID)
	}
}

func TestRevokeRole(t *testing.T) {
	module := authorizationservice.NewInMemoryModule(nil, nil)
	grantRole(t, module, "founder-1", "founder-1", "admin")
	grantRole(t, module, "founder-1", "user-2", "moderator")

	revoked, err := module.Handler.RevokeRoleHandler(context.Background(), "founder-1", authzhttp.RevokeRoleRequest{
		UserID: "user-2",
		RoleID: "moderator",
	})
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if !revoked.Revoked {
		t.Fatalf("expected an active assignment to be revoked")
	}

	again, err := module.Handler.RevokeRoleHandler(context.Background(), "founder-1", authzhttp.RevokeRoleRequest{
		UserID: "user-2",
		RoleID: "moderator",
	})
	if err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
	if again.Revoked {
		t.Fatalf("expected no-op revoke for a role no longer held")
	}

	check, err := module.Handler.CheckPermissionHandler(context.Background(), authzhttp.CheckPermissionRequest{
		UserID: "user-2",
		Roles:  []string{"moderator"},
	})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if check.Allowed {
		t.Fatalf("expected revoked role to fail the check")
	}

	_, err = module.Handler.RevokeRoleHandler(context.Background(), "user-2", authzhttp.RevokeRoleRequest{
		UserID: "founder-1",
		RoleID: "admin",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin revoke, got %v", err)
	}
}

func TestListUserRoles(t *testing.T) {
	module := authorizationservice.NewInMemoryModule(nil, nil)
	grantRole(t, module, "founder-1", "founder-1", "admin")
	grantRole(t, module, "founder-1", "user-2", "moderator")
	grantRole(t, module, "founder-1", "user-2", "admin")

	listed, err := module.Handler.ListUserRolesHandler(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(listed.Items) != 2 {
		t.Fatalf("expected two active roles, got %d", len(listed.Items))
	}

	empty, err := module.Handler.ListUserRolesHandler(context.Background(), "stranger-1")
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(empty.Items) != 0 {
		t.Fatalf("expected no roles, got %d", len(empty.Items))
	}
}

func TestCheckPermissionValidatesInput(t *testing.T) {
	module := authorizationservice.NewInMemoryModule(nil, nil)

	_, err := module.Handler.CheckPermissionHandler(context.Background(), authzhttp.CheckPermissionRequest{
		UserID: "user-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidRoleID) {
		t.Fatalf("expected invalid role input for empty role set, got %v", err)
	}

	_, err = module.Handler.CheckPermissionHandler(context.Background(), authzhttp.CheckPermissionRequest{
		Roles: []string{"admin"},
	})
	if !errors.Is(err, domainerrors.ErrInvalidUserID) {
		t.Fatalf("expected invalid user input, got %v", err)
	}
}
