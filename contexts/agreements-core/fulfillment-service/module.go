package fulfillmentservice

import (
	"log/slog"

	httpadapter "covenant/contexts/agreements-core/fulfillment-service/adapters/http"
	"covenant/contexts/agreements-core/fulfillment-service/adapters/memory"
	"covenant/contexts/agreements-core/fulfillment-service/application/commands"
	"covenant/contexts/agreements-core/fulfillment-service/application/queries"
	"covenant/contexts/agreements-core/fulfillment-service/application/workers"
	"covenant/contexts/agreements-core/fulfillment-service/ports"
)

type Module struct {
	Handler      httpadapter.Handler
	AttachDeed   commands.AttachDeedUseCase
	FlagDisputed commands.FlagDisputedUseCase
	OutboxRelay  workers.OutboxRelay
	Store        *memory.Store
}

type Dependencies struct {
	Assignments ports.AssignmentRepository
	DeedSigners ports.DeedSignerGateway
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createMilestone := commands.CreateMilestoneUseCase{
		Assignments: deps.Assignments,
		Notifier:    deps.Notifier,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		Logger:      deps.Logger,
	}
	updateMilestone := commands.UpdateMilestoneUseCase{
		Assignments: deps.Assignments,
		Notifier:    deps.Notifier,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		Logger:      deps.Logger,
	}
	confirmMilestone := commands.ConfirmMilestoneUseCase{
		Assignments: deps.Assignments,
		DeedSigners: deps.DeedSigners,
		Notifier:    deps.Notifier,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		Logger:      deps.Logger,
	}
	attachDeed := commands.AttachDeedUseCase{
		Assignments: deps.Assignments,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	flagDisputed := commands.FlagDisputedUseCase{
		Assignments: deps.Assignments,
		Notifier:    deps.Notifier,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		Logger:      deps.Logger,
	}
	getAssignment := queries.GetAssignmentUseCase{
		Assignments: deps.Assignments,
		Logger:      deps.Logger,
	}
	listEvents := queries.ListEventsUseCase{
		Assignments: deps.Assignments,
		Logger:      deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateMilestone:  createMilestone,
			UpdateMilestone:  updateMilestone,
			ConfirmMilestone: confirmMilestone,
			GetAssignment:    getAssignment,
			ListEvents:       listEvents,
			Logger:           deps.Logger,
		},
		AttachDeed:   attachDeed,
		FlagDisputed: flagDisputed,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(deedSigners ports.DeedSignerGateway, notifier ports.Notifier, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Assignments: store,
		DeedSigners: deedSigners,
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
