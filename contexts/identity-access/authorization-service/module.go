package authorizationservice

import (
	"log/slog"

	httpadapter "covenant/contexts/identity-access/authorization-service/adapters/http"
	"covenant/contexts/identity-access/authorization-service/adapters/memory"
	"covenant/contexts/identity-access/authorization-service/application/commands"
	"covenant/contexts/identity-access/authorization-service/application/queries"
	"covenant/contexts/identity-access/authorization-service/ports"
	"covenant/internal/shared/audit"
)

type Module struct {
	Handler         httpadapter.Handler
	GrantRole       commands.GrantRoleUseCase
	RevokeRole      commands.RevokeRoleUseCase
	CheckPermission queries.CheckPermissionUseCase
	ListUserRoles   queries.ListUserRolesUseCase
	Store           *memory.Store
}

type Dependencies struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	grantRole := commands.GrantRoleUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGenerator,
		Logger:     deps.Logger,
	}
	revokeRole := commands.RevokeRoleUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGenerator,
		Logger:     deps.Logger,
	}
	checkPermission := queries.CheckPermissionUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	listUserRoles := queries.ListUserRolesUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			GrantRole:       grantRole,
			RevokeRole:      revokeRole,
			CheckPermission: checkPermission,
			ListUserRoles:   listUserRoles,
			Logger:          deps.Logger,
		},
		GrantRole:       grantRole,
		RevokeRole:      revokeRole,
		CheckPermission: checkPermission,
		ListUserRoles:   listUserRoles,
	}
}

func NewInMemoryModule(auditLog *audit.MemoryLog, logger *slog.Logger) Module {
	store := memory.NewStore(auditLog)
	module := NewModule(Dependencies{
		Repository:  store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
