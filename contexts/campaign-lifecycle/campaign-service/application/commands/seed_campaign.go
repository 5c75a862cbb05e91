package commands

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/campaign-lifecycle/campaign-service/application"
	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
	domainerrors "covenant/contexts/campaign-lifecycle/campaign-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
	"covenant/internal/shared/audit"
	"covenant/internal/shared/events"
)

type SeedCampaignCommand struct {
	CampaignID string
	ActorID    string
	Reason     string
}

// SeedCampaignUseCase moves a live need campaign to seeded and spawns its
// companion feed campaign in one transaction. Execute is the manual
// moderation escape hatch that bypasses the threshold; SeedMet is the
// automatic path used once the threshold evaluates as met.
type SeedCampaignUseCase struct {
	Campaigns   ports.CampaignRepository
	Permissions ports.PermissionChecker
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc SeedCampaignUseCase) Execute(ctx context.Context, cmd SeedCampaignCommand) (ports.SeedResult, error) {
	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return ports.SeedResult{}, domainerrors.ErrForbidden
	}
	allowed, err := uc.Permissions.HasAnyRole(ctx, actorID, "admin", "moderator")
	if err != nil {
		return ports.SeedResult{}, err
	}
	if !allowed {
		return ports.SeedResult{}, domainerrors.ErrForbidden
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return ports.SeedResult{}, domainerrors.ErrReasonRequired
	}
	return uc.seed(ctx, strings.TrimSpace(cmd.CampaignID), actorID, "manual", strings.TrimSpace(cmd.Reason))
}

// SeedMet seeds a live need campaign whose threshold evaluated as met.
// Callers are internal (pledge flow, deadline sweep), so no role check.
func (uc SeedCampaignUseCase) SeedMet(ctx context.Context, campaignID, actorID string) (ports.SeedResult, error) {
	return uc.seed(ctx, strings.TrimSpace(campaignID), strings.TrimSpace(actorID), "threshold_met", "")
}

func (uc SeedCampaignUseCase) seed(ctx context.Context, campaignID, actorID, trigger, reason string) (ports.SeedResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	need, err := uc.Campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return ports.SeedResult{}, err
	}
	needStatus, ok := need.NeedStatus()
	if !ok {
		return ports.SeedResult{}, domainerrors.ErrNotNeedCampaign
	}
	if needStatus != entities.NeedStatusLive {
		return ports.SeedResult{}, domainerrors.ErrInvalidStateTransition
	}

	now := uc.Clock.Now().UTC()

	feedID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.SeedResult{}, err
	}
	feed := entities.Campaign{
		CampaignID:           feedID,
		Kind:                 entities.CampaignKindFeed,
		OwnerID:              need.OwnerID,
		Title:                need.Title + " (supply)",
		Description:          need.Description,
		Visibility:           need.Visibility,
		GroupID:              need.GroupID,
		SourceNeedCampaignID: need.CampaignID,
		Status:               entities.FeedStatusDraft,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	seededAuditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.SeedResult{}, err
	}
	seededEntry, err := audit.NewEntry(seededAuditID, actorID, "campaign.seeded", "campaign", need.CampaignID, map[string]any{
		"from":             entities.NeedStatusLive.String(),
		"to":               entities.NeedStatusSeeded.String(),
		"trigger":          trigger,
		"reason":           reason,
		"feed_campaign_id": feedID,
	}, now)
	if err != nil {
		return ports.SeedResult{}, err
	}
	spawnedAuditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.SeedResult{}, err
	}
	spawnedEntry, err := audit.NewEntry(spawnedAuditID, actorID, "campaign.created", "campaign", feedID, map[string]any{
		"kind":                    string(entities.CampaignKindFeed),
		"source_need_campaign_id": need.CampaignID,
	}, now)
	if err != nil {
		return ports.SeedResult{}, err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.SeedResult{}, err
	}
	envelope, err := events.New(eventID, "campaign.seeded", "campaign-service", need.CampaignID, now, map[string]any{
		"need_campaign_id": need.CampaignID,
		"feed_campaign_id": feedID,
		"trigger":          trigger,
	})
	if err != nil {
		return ports.SeedResult{}, err
	}

	result, err := uc.Campaigns.SeedCampaign(ctx, ports.SeedInput{
		NeedCampaignID: need.CampaignID,
		Feed:           feed,
		At:             now,
		Audits:         []audit.Entry{seededEntry, spawnedEntry},
		Event:          &envelope,
	})
	if err != nil {
		return ports.SeedResult{}, err
	}

	if uc.Notifier != nil {
		_ = uc.Notifier.Notify(ctx, need.OwnerID, "campaign_seeded", "campaign", need.CampaignID, map[string]any{
			"feed_campaign_id": feedID,
			"trigger":          trigger,
		})
	}

	logger.Info("need campaign seeded",
		"event", "campaign_seeded",
		"module", "campaign-lifecycle/campaign-service",
		"layer", "application",
		"campaign_id", need.CampaignID,
		"feed_campaign_id", feedID,
		"trigger", trigger,
	)
	return result, nil
}
