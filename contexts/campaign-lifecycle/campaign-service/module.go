package campaignservice

import (
	"log/slog"

	httpadapter "covenant/contexts/campaign-lifecycle/campaign-service/adapters/http"
	"covenant/contexts/campaign-lifecycle/campaign-service/adapters/memory"
	"covenant/contexts/campaign-lifecycle/campaign-service/application/commands"
	"covenant/contexts/campaign-lifecycle/campaign-service/application/queries"
	"covenant/contexts/campaign-lifecycle/campaign-service/application/workers"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
	"covenant/internal/shared/audit"
)

type Module struct {
	Handler        httpadapter.Handler
	SeedCampaign   commands.SeedCampaignUseCase
	DeadlineSeeder workers.DeadlineSeeder
	OutboxRelay    workers.OutboxRelay
	Store          *memory.Store
}

type Dependencies struct {
	Campaigns   ports.CampaignRepository
	Pledges     ports.PledgeRepository
	Due         ports.DueNeedRepository
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Permissions ports.PermissionChecker
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createCampaign := commands.CreateCampaignUseCase{
		Campaigns: deps.Campaigns,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	changeStatus := commands.ChangeStatusUseCase{
		Campaigns: deps.Campaigns,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	moderateCampaign := commands.ModerateCampaignUseCase{
		Campaigns:   deps.Campaigns,
		Permissions: deps.Permissions,
		Notifier:    deps.Notifier,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		Logger:      deps.Logger,
	}
	seedCampaign := commands.SeedCampaignUseCase{
		Campaigns:   deps.Campaigns,
		Permissions: deps.Permissions,
		Notifier:    deps.Notifier,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		Logger:      deps.Logger,
	}
	submitPledge := commands.SubmitPledgeUseCase{
		Campaigns: deps.Campaigns,
		Pledges:   deps.Pledges,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}

	getCampaign := queries.GetCampaignUseCase{
		Campaigns: deps.Campaigns,
		Logger:    deps.Logger,
	}
	listCampaigns := queries.ListCampaignsUseCase{
		Campaigns: deps.Campaigns,
		Logger:    deps.Logger,
	}
	evaluateThreshold := queries.EvaluateThresholdUseCase{
		Campaigns: deps.Campaigns,
		Pledges:   deps.Pledges,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateCampaign:    createCampaign,
			ChangeStatus:      changeStatus,
			ModerateCampaign:  moderateCampaign,
			SeedCampaign:      seedCampaign,
			SubmitPledge:      submitPledge,
			GetCampaign:       getCampaign,
			ListCampaigns:     listCampaigns,
			EvaluateThreshold: evaluateThreshold,
			Logger:            deps.Logger,
		},
		SeedCampaign: seedCampaign,
		DeadlineSeeder: workers.DeadlineSeeder{
			Due:       deps.Due,
			Campaigns: deps.Campaigns,
			Pledges:   deps.Pledges,
			Seeder:    seedCampaign,
			Clock:     deps.Clock,
			IDGen:     deps.IDGenerator,
			Logger:    deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(auditLog *audit.MemoryLog, permissions ports.PermissionChecker, notifier ports.Notifier, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore(auditLog)
	module := NewModule(Dependencies{
		Campaigns:   store,
		Pledges:     store,
		Due:         store,
		Outbox:      store,
		Publisher:   publisher,
		Permissions: permissions,
		Notifier:    notifier,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
