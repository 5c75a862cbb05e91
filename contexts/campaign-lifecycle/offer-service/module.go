package offerservice

import (
	"log/slog"

	httpadapter "covenant/contexts/campaign-lifecycle/offer-service/adapters/http"
	"covenant/contexts/campaign-lifecycle/offer-service/adapters/memory"
	"covenant/contexts/campaign-lifecycle/offer-service/application/commands"
	"covenant/contexts/campaign-lifecycle/offer-service/application/queries"
	"covenant/contexts/campaign-lifecycle/offer-service/application/workers"
	"covenant/contexts/campaign-lifecycle/offer-service/ports"
	"covenant/internal/shared/audit"
)

type Module struct {
	Handler     httpadapter.Handler
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Offers      ports.OfferRepository
	Campaigns   ports.FeedCampaignGateway
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Deeds       ports.DeedClient
	Notifier    ports.Notifier
	Audits      ports.AuditAppender
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	submitOffer := commands.SubmitOfferUseCase{
		Offers:    deps.Offers,
		Campaigns: deps.Campaigns,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	signOffer := commands.SignOfferUseCase{
		Offers: deps.Offers,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	selectOffer := commands.SelectOfferUseCase{
		Offers:    deps.Offers,
		Campaigns: deps.Campaigns,
		Deeds:     deps.Deeds,
		Notifier:  deps.Notifier,
		Audits:    deps.Audits,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	getOffer := queries.GetOfferUseCase{
		Offers: deps.Offers,
		Logger: deps.Logger,
	}
	listOffers := queries.ListOffersUseCase{
		Offers: deps.Offers,
		Logger: deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			SubmitOffer: submitOffer,
			SignOffer:   signOffer,
			SelectOffer: selectOffer,
			GetOffer:    getOffer,
			ListOffers:  listOffers,
			Logger:      deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(auditLog *audit.MemoryLog, deeds ports.DeedClient, notifier ports.Notifier, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore(auditLog)
	module := NewModule(Dependencies{
		Offers:      store,
		Campaigns:   store,
		Outbox:      store,
		Publisher:   publisher,
		Deeds:       deeds,
		Notifier:    notifier,
		Audits:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
