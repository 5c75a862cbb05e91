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

type ModerateAction string

const (
	ModerateActionApprove    ModerateAction = "approve"
	ModerateActionReject     ModerateAction = "reject"
	ModerateActionSuspend    ModerateAction = "suspend"
	ModerateActionReactivate ModerateAction = "reactivate"
	ModerateActionDelete     ModerateAction = "delete"
)

type ModerateCampaignCommand struct {
	CampaignID string
	ActorID    string
	Action     ModerateAction
	Reason     string
}

type ModerateCampaignUseCase struct {
	Campaigns   ports.CampaignRepository
	Permissions ports.PermissionChecker
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc ModerateCampaignUseCase) Execute(ctx context.Context, cmd ModerateCampaignCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)

	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return entities.Campaign{}, domainerrors.ErrForbidden
	}
	allowed, err := uc.Permissions.HasAnyRole(ctx, actorID, "admin", "moderator")
	if err != nil {
		return entities.Campaign{}, err
	}
	if !allowed {
		return entities.Campaign{}, domainerrors.ErrForbidden
	}

	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return entities.Campaign{}, err
	}
	now := uc.Clock.Now().UTC()

	if cmd.Action == ModerateActionDelete {
		auditID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Campaign{}, err
		}
		entry, err := audit.NewEntry(auditID, actorID, "campaign.deleted", "campaign", campaign.CampaignID, map[string]any{
			"kind":   string(campaign.Kind),
			"status": campaign.Status.String(),
			"reason": strings.TrimSpace(cmd.Reason),
		}, now)
		if err != nil {
			return entities.Campaign{}, err
		}
		if err := uc.Campaigns.DeleteCampaign(ctx, campaign.CampaignID, entry); err != nil {
			return entities.Campaign{}, err
		}
		logger.Info("campaign deleted by moderation",
			"event", "campaign_deleted",
			"module", "campaign-lifecycle/campaign-service",
			"layer", "application",
			"campaign_id", campaign.CampaignID,
			"actor_id", actorID,
		)
		return campaign, nil
	}

	from, to, err := moderationTransition(campaign, cmd.Action)
	if err != nil {
		return entities.Campaign{}, err
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Campaign{}, err
	}
	entry, err := audit.NewEntry(auditID, actorID, "campaign.moderated", "campaign", campaign.CampaignID, map[string]any{
		"action": string(cmd.Action),
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

	if uc.Notifier != nil {
		_ = uc.Notifier.Notify(ctx, campaign.OwnerID, "campaign_moderated", "campaign", campaign.CampaignID, map[string]any{
			"action": string(cmd.Action),
			"status": to.String(),
		})
	}

	logger.Info("campaign moderated",
		"event", "campaign_moderated",
		"module", "campaign-lifecycle/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"action", string(cmd.Action),
		"from_status", from.String(),
		"to_status", to.String(),
	)
	return updated, nil
}

func moderationTransition(campaign entities.Campaign, action ModerateAction) (entities.CampaignStatus, entities.CampaignStatus, error) {
	if needStatus, ok := campaign.NeedStatus(); ok {
		switch action {
		case ModerateActionApprove:
			if needStatus != entities.NeedStatusReview {
				return nil, nil, domainerrors.ErrInvalidStateTransition
			}
			return entities.NeedStatusReview, entities.NeedStatusLive, nil
		case ModerateActionReject:
			if needStatus != entities.NeedStatusReview {
				return nil, nil, domainerrors.ErrInvalidStateTransition
			}
			return entities.NeedStatusReview, entities.NeedStatusCanceled, nil
		case ModerateActionSuspend:
			if needStatus != entities.NeedStatusLive {
				return nil, nil, domainerrors.ErrInvalidStateTransition
			}
			return entities.NeedStatusLive, entities.NeedStatusCanceled, nil
		case ModerateActionReactivate:
			if needStatus != entities.NeedStatusCanceled && needStatus != entities.NeedStatusClosedUnseeded {
				return nil, nil, domainerrors.ErrInvalidStateTransition
			}
			return needStatus, entities.NeedStatusLive, nil
		}
		return nil, nil, domainerrors.ErrInvalidStateTransition
	}

	feedStatus, _ := campaign.FeedStatus()
	switch action {
	case ModerateActionSuspend:
		if feedStatus == entities.FeedStatusCanceled {
			return nil, nil, domainerrors.ErrInvalidStateTransition
		}
		return feedStatus, entities.FeedStatusCanceled, nil
	default:
		return nil, nil, domainerrors.ErrInvalidStateTransition
	}
}
