package deedservice

import (
	"log/slog"

	httpadapter "covenant/contexts/agreements-core/deed-service/adapters/http"
	"covenant/contexts/agreements-core/deed-service/adapters/memory"
	"covenant/contexts/agreements-core/deed-service/application/commands"
	"covenant/contexts/agreements-core/deed-service/application/queries"
	"covenant/contexts/agreements-core/deed-service/application/workers"
	"covenant/contexts/agreements-core/deed-service/ports"
	"covenant/internal/shared/audit"
)

type Module struct {
	Handler          httpadapter.Handler
	CreateDeed       commands.CreateDeedUseCase
	OpenForSignature commands.OpenForSignatureUseCase
	OutboxRelay      workers.OutboxRelay
	Store            *memory.Store
}

type Dependencies struct {
	Deeds       ports.DeedRepository
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createDeed := commands.CreateDeedUseCase{
		Deeds:  deps.Deeds,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	openForSignature := commands.OpenForSignatureUseCase{
		Deeds:    deps.Deeds,
		Notifier: deps.Notifier,
		Clock:    deps.Clock,
		IDGen:    deps.IDGenerator,
		Logger:   deps.Logger,
	}
	signDeed := commands.SignDeedUseCase{
		Deeds:    deps.Deeds,
		Notifier: deps.Notifier,
		Clock:    deps.Clock,
		IDGen:    deps.IDGenerator,
		Logger:   deps.Logger,
	}
	amendDeed := commands.AmendDeedUseCase{
		Deeds:    deps.Deeds,
		Notifier: deps.Notifier,
		Clock:    deps.Clock,
		IDGen:    deps.IDGenerator,
		Logger:   deps.Logger,
	}
	voidDeed := commands.VoidDeedUseCase{
		Deeds:    deps.Deeds,
		Notifier: deps.Notifier,
		Clock:    deps.Clock,
		IDGen:    deps.IDGenerator,
		Logger:   deps.Logger,
	}
	getDeed := queries.GetDeedUseCase{
		Deeds:  deps.Deeds,
		Logger: deps.Logger,
	}
	versionHistory := queries.GetVersionHistoryUseCase{
		Deeds:  deps.Deeds,
		Logger: deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateDeed:       createDeed,
			OpenForSignature: openForSignature,
			SignDeed:         signDeed,
			AmendDeed:        amendDeed,
			VoidDeed:         voidDeed,
			GetDeed:          getDeed,
			VersionHistory:   versionHistory,
			Logger:           deps.Logger,
		},
		CreateDeed:       createDeed,
		OpenForSignature: openForSignature,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(auditLog *audit.MemoryLog, notifier ports.Notifier, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore(auditLog)
	module := NewModule(Dependencies{
		Deeds:       store,
		Outbox:      store,
		Publisher:   publisher,
		Notifier:    notifier,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
