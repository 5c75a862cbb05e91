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
)

type ChangeStatusAction string

const (
	// StatusActionSubmit moves a need campaign draft -> review.
	StatusActionSubmit ChangeStatusAction = "submit"
	// StatusActionPublish moves a feed campaign draft -> open.
	StatusActionPublish ChangeStatusAction = "publish"
)

type ChangeStatusCommand struct {
	CampaignID string
	ActorID    string
	Action     ChangeStatusAction
	Reason     string
}

// ChangeStatusUseCase covers the owner-driven transitions. Moderation and
// seeding have their own use cases with role guards.
type ChangeStatusUseCase struct {
	Campaigns ports.CampaignRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc ChangeStatusUseCase) Execute(ctx context.Context, cmd ChangeStatusCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)

	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return entities.Campaign{}, err
	}
	if !campaign.IsOwnedBy(cmd.ActorID) {
		return entities.Campaign{}, domainerrors.ErrForbidden
	}

	var from, to entities.CampaignStatus
	switch cmd.Action {
	case StatusActionSubmit:
		status, ok := campaign.NeedStatus()
		if !ok {
			return entities.Campaign{}, domainerrors.ErrNotNeedCampaign
		}
		if status != entities.NeedStatusDraft {
			return entities.Campaign{}, domainerrors.ErrInvalidStateTransition
		}
		from, to = entities.NeedStatusDraft, entities.NeedStatusReview
	case StatusActionPublish:
		status, ok := campaign.FeedStatus()
		if !ok {
			return entities.Campaign{}, domainerrors.ErrNotFeedCampaign
		}
		if status != entities.FeedStatusDraft {
			return entities.Campaign{}, domainerrors.ErrInvalidStateTransition
		}
		from, to = entities.FeedStatusDraft, entities.FeedStatusOpen
	default:
		return entities.Campaign{}, domainerrors.ErrInvalidStateTransition
	}

	now := uc.Clock.Now().UTC()
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Campaign{}, err
	}
	entry, err := audit.NewEntry(auditID, strings.TrimSpace(cmd.ActorID), "campaign.status_changed", "campaign", campaign.CampaignID, map[string]any{
		"from":   from.String(),
		"to":     to.String(),
		"reason": strings.TrimSpace(cmd.Reason),
	}, now)
	if err != nil {
		return entities.Campaign{}, err
	}

	updated, err := uc.Campaigns.TransitionCampaign(ctx, ports.TransitionInput{
		CampaignID: campaign.CampaignID,
		From:       from,
		To:         to,
		At:         now,
		Audit:      entry,
	})
	if err != nil {
		return entities.Campaign{}, err
	}

	logger.Info("campaign status changed",
		"event", "campaign_status_changed",
		"module", "campaign-lifecycle/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"from_status", from.String(),
		"to_status", to.String(),
	)
	return updated, nil
}
