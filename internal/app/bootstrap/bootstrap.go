package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	deedservice "covenant/contexts/agreements-core/deed-service"
	deedpostgres "covenant/contexts/agreements-core/deed-service/adapters/postgres"
	deedworkers "covenant/contexts/agreements-core/deed-service/application/workers"
	fulfillmentservice "covenant/contexts/agreements-core/fulfillment-service"
	fulfillmentpostgres "covenant/contexts/agreements-core/fulfillment-service/adapters/postgres"
	fulfillmentworkers "covenant/contexts/agreements-core/fulfillment-service/application/workers"
	campaignservice "covenant/contexts/campaign-lifecycle/campaign-service"
	campaignpostgres "covenant/contexts/campaign-lifecycle/campaign-service/adapters/postgres"
	campaignworkers "covenant/contexts/campaign-lifecycle/campaign-service/application/workers"
	offerservice "covenant/contexts/campaign-lifecycle/offer-service"
	offerpostgres "covenant/contexts/campaign-lifecycle/offer-service/adapters/postgres"
	offerworkers "covenant/contexts/campaign-lifecycle/offer-service/application/workers"
	authorizationservice "covenant/contexts/identity-access/authorization-service"
	authzpostgres "covenant/contexts/identity-access/authorization-service/adapters/postgres"
	disputeservice "covenant/contexts/moderation-safety/dispute-service"
	disputepostgres "covenant/contexts/moderation-safety/dispute-service/adapters/postgres"
	"covenant/internal/platform/config"
	"covenant/internal/platform/db"
	"covenant/internal/platform/httpserver"
	"covenant/internal/platform/identity"
	"covenant/internal/platform/messaging"
	"covenant/internal/platform/notify"
	"covenant/internal/platform/ratelimit"
	"covenant/internal/shared/audit"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres          *db.Postgres
	campaignRelay     campaignworkers.OutboxRelay
	offerRelay        offerworkers.OutboxRelay
	deedRelay         deedworkers.OutboxRelay
	fulfillmentRelay  fulfillmentworkers.OutboxRelay
	deadlineSeeder    campaignworkers.DeadlineSeeder
	enableAutoSeeding bool
	enableOutboxRelay bool
	pollInterval      time.Duration
	logger            *slog.Logger
}

type modules struct {
	campaigns     campaignservice.Module
	offers        offerservice.Module
	deeds         deedservice.Module
	fulfillment   fulfillmentservice.Module
	disputes      disputeservice.Module
	authorization authorizationservice.Module
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	pg, mods, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	var limiter ratelimit.Limiter
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisLimiter, err := ratelimit.NewRedisLimiter(cfg.RedisURL, cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		limiter = redisLimiter
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	server := httpserver.New(
		mods.campaigns,
		mods.offers,
		mods.deeds,
		mods.fulfillment,
		mods.disputes,
		mods.authorization,
		identity.NewResolver(cfg.JWTSecret),
		limiter,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	pg, mods, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres:          pg,
		campaignRelay:     mods.campaigns.OutboxRelay,
		offerRelay:        mods.offers.OutboxRelay,
		deedRelay:         mods.deeds.OutboxRelay,
		fulfillmentRelay:  mods.fulfillment.OutboxRelay,
		deadlineSeeder:    mods.campaigns.DeadlineSeeder,
		enableAutoSeeding: cfg.EnableAutoSeeding,
		enableOutboxRelay: cfg.EnableOutboxRelay,
		pollInterval:      2 * time.Second,
		logger:            logger,
	}, nil
}

func buildModules(cfg config.Config, logger *slog.Logger) (*db.Postgres, modules, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, modules{}, errors.New("POSTGRES_DSN is required")
	}
	if err := db.Migrate(cfg.PostgresDSN); err != nil {
		return nil, modules{}, err
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, modules{}, err
	}

	bus, err := messaging.NewBus(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, modules{}, err
	}
	sink := notify.NewSink(bus, logger)

	authzRepo := authzpostgres.NewRepository(pg.DB, logger)
	authzModule := authorizationservice.NewModule(authorizationservice.Dependencies{
		Repository:  authzRepo,
		Clock:       authzpostgres.SystemClock{},
		IDGenerator: authzpostgres.UUIDGenerator{},
		Logger:      logger,
	})
	permissions := permissionClient{check: authzModule.CheckPermission}

	campaignRepo := campaignpostgres.NewRepository(pg.DB, logger)
	campaignModule := campaignservice.NewModule(campaignservice.Dependencies{
		Campaigns:   campaignRepo,
		Pledges:     campaignRepo,
		Due:         campaignRepo,
		Outbox:      campaignRepo,
		Publisher:   bus,
		Permissions: permissions,
		Notifier:    sink,
		Clock:       campaignpostgres.SystemClock{},
		IDGenerator: campaignpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	deedRepo := deedpostgres.NewRepository(pg.DB, logger)
	deedModule := deedservice.NewModule(deedservice.Dependencies{
		Deeds:       deedRepo,
		Outbox:      deedRepo,
		Publisher:   bus,
		Notifier:    sink,
		Clock:       deedpostgres.SystemClock{},
		IDGenerator: deedpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	fulfillmentRepo := fulfillmentpostgres.NewRepository(pg.DB, logger)
	fulfillmentModule := fulfillmentservice.NewModule(fulfillmentservice.Dependencies{
		Assignments: fulfillmentRepo,
		DeedSigners: deedRepo,
		Outbox:      fulfillmentRepo,
		Publisher:   bus,
		Notifier:    sink,
		Clock:       fulfillmentpostgres.SystemClock{},
		IDGenerator: fulfillmentpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	offerRepo := offerpostgres.NewRepository(pg.DB, logger)
	offerModule := offerservice.NewModule(offerservice.Dependencies{
		Offers:    offerRepo,
		Campaigns: offerRepo,
		Outbox:    offerRepo,
		Publisher: bus,
		Deeds: deedClient{
			create: deedModule.CreateDeed,
			open:   deedModule.OpenForSignature,
			attach: fulfillmentModule.AttachDeed,
			logger: logger,
		},
		Notifier:    sink,
		Audits:      offerRepo,
		Clock:       offerpostgres.SystemClock{},
		IDGenerator: offerpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	disputeRepo := disputepostgres.NewRepository(pg.DB, logger)
	disputeModule := disputeservice.NewModule(disputeservice.Dependencies{
		Repository:     disputeRepo,
		Idempotency:    disputeRepo,
		Permissions:    permissions,
		Assignments:    assignmentDisputeClient{flag: fulfillmentModule.FlagDisputed},
		AuditReader:    audit.GormReader{DB: pg.DB},
		Notifier:       sink,
		Clock:          disputepostgres.SystemClock{},
		IDGenerator:    disputepostgres.UUIDGenerator{},
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})

	return pg, modules{
		campaigns:     campaignModule,
		offers:        offerModule,
		deeds:         deedModule,
		fulfillment:   fulfillmentModule,
		disputes:      disputeModule,
		authorization: authzModule,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"auto_seeding", w.enableAutoSeeding,
		"outbox_relay", w.enableOutboxRelay,
	)

	for {
		if w.enableAutoSeeding {
			if err := w.deadlineSeeder.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.enableOutboxRelay {
			if err := w.campaignRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.offerRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.deedRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.fulfillmentRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
