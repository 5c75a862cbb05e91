package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "covenant/contexts/campaign-lifecycle/campaign-service/application"
	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
	domainerrors "covenant/contexts/campaign-lifecycle/campaign-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/campaign-service/domain/services"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/events"
)

// NeedSeeder is the automatic seeding entry point of the campaign
// application layer.
type NeedSeeder interface {
	SeedMet(ctx context.Context, campaignID, actorID string) (ports.SeedResult, error)
}

// DeadlineSeeder sweeps live need campaigns whose threshold deadline has
// passed: threshold met seeds the campaign, otherwise it closes unseeded.
// Conditional status updates make the sweep safe to run on several
// instances at once; a racing instance loses the update and moves on.
type DeadlineSeeder struct {
	Due       ports.DueNeedRepository
	Campaigns ports.CampaignRepository
	Pledges   ports.PledgeRepository
	Seeder    NeedSeeder
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BatchSize int
	Logger    *slog.Logger
}

const deadlineSweepActor = "system:deadline-seeder"

func (j DeadlineSeeder) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	due, err := j.Due.ListDueNeedCampaigns(ctx, now, limit)
	if err != nil {
		logger.Error("deadline seeding sweep failed",
			"event", "campaign_deadline_sweep_failed",
			"module", "campaign-lifecycle/campaign-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	seeded := 0
	closed := 0
	for _, campaign := range due {
		if campaign.Threshold == nil {
			continue
		}
		pledges, err := j.Pledges.ListPledges(ctx, campaign.CampaignID)
		if err != nil {
			return err
		}
		result := services.EvaluateThreshold(*campaign.Threshold, pledges)
		if result.Met {
			if _, err := j.Seeder.SeedMet(ctx, campaign.CampaignID, deadlineSweepActor); err != nil {
				if errors.Is(err, domainerrors.ErrInvalidStateTransition) || errors.Is(err, domainerrors.ErrTransitionConflict) {
					continue
				}
				return err
			}
			seeded++
			continue
		}
		if err := j.closeUnseeded(ctx, campaign, result, now); err != nil {
			if errors.Is(err, domainerrors.ErrInvalidStateTransition) || errors.Is(err, domainerrors.ErrTransitionConflict) {
				continue
			}
			return err
		}
		closed++
	}

	if seeded > 0 || closed > 0 {
		logger.Info("deadline seeding sweep completed",
			"event", "campaign_deadline_sweep_completed",
			"module", "campaign-lifecycle/campaign-service",
			"layer", "worker",
			"seeded_count", seeded,
			"closed_count", closed,
		)
	}
	return nil
}

func (j DeadlineSeeder) closeUnseeded(ctx context.Context, campaign entities.Campaign, result services.ThresholdResult, now time.Time) error {
	auditID, err := j.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	entry, err := audit.NewEntry(auditID, deadlineSweepActor, "campaign.closed_unseeded", "campaign", campaign.CampaignID, map[string]any{
		"from":    entities.NeedStatusLive.String(),
		"to":      entities.NeedStatusClosedUnseeded.String(),
		"current": result.Current,
		"target":  result.Target,
	}, now)
	if err != nil {
		return err
	}
	eventID, err := j.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := events.New(eventID, "campaign.closed_unseeded", "campaign-service", campaign.CampaignID, now, map[string]any{
		"need_campaign_id": campaign.CampaignID,
		"current":          result.Current,
		"target":           result.Target,
	})
	if err != nil {
		return err
	}
	_, err = j.Campaigns.TransitionCampaign(ctx, ports.TransitionInput{
		CampaignID: campaign.CampaignID,
		From:       entities.NeedStatusLive,
		To:         entities.NeedStatusClosedUnseeded,
		At:         now,
		Audit:      entry,
		Event:      &envelope,
	})
	return err
}
