package disputeservice

import (
	"log/slog"
	"time"

	httpadapter "covenant/contexts/moderation-safety/dispute-service/adapters/http"
	"covenant/contexts/moderation-safety/dispute-service/adapters/memory"
	"covenant/contexts/moderation-safety/dispute-service/application"
	"covenant/contexts/moderation-safety/dispute-service/ports"
	"covenant/internal/shared/audit"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository     ports.Repository
	Idempotency    ports.IdempotencyStore
	Permissions    ports.PermissionChecker
	Assignments    ports.AssignmentDisputeClient
	AuditReader    audit.Reader
	Notifier       ports.Notifier
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:           deps.Repository,
		Idempotency:    deps.Idempotency,
		Permissions:    deps.Permissions,
		Assignments:    deps.Assignments,
		AuditReader:    deps.AuditReader,
		Notifier:       deps.Notifier,
		Clock:          deps.Clock,
		IDGen:          deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(auditLog *audit.MemoryLog, permissions ports.PermissionChecker, assignments ports.AssignmentDisputeClient, notifier ports.Notifier, logger *slog.Logger) Module {
	store := memory.NewStore(auditLog)
	module := NewModule(Dependencies{
		Repository:     store,
		Idempotency:    store,
		Permissions:    permissions,
		Assignments:    assignments,
		AuditReader:    store.AuditLog(),
		Notifier:       notifier,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
