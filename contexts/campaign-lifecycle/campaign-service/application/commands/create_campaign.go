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

type CreateCampaignCommand struct {
	OwnerID     string
	Kind        entities.CampaignKind
	Title       string
	Description string
	Visibility  entities.Visibility
	GroupID     string
	Threshold   *entities.ThresholdDefinition
}

type CreateCampaignResult struct {
	Campaign entities.Campaign
}

type CreateCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (CreateCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	ownerID := strings.TrimSpace(cmd.OwnerID)
	if ownerID == "" {
		return CreateCampaignResult{}, domainerrors.ErrInvalidCampaignInput
	}

	now := uc.Clock.Now().UTC()
	campaignID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateCampaignResult{}, err
	}

	visibility := cmd.Visibility
	if visibility == "" {
		visibility = entities.VisibilityPublic
	}

	campaign := entities.Campaign{
		CampaignID:  campaignID,
		Kind:        cmd.Kind,
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(cmd.Title),
		Description: strings.TrimSpace(cmd.Description),
		Visibility:  visibility,
		GroupID:     strings.TrimSpace(cmd.GroupID),
		Threshold:   cmd.Threshold,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch cmd.Kind {
	case entities.CampaignKindNeed:
		campaign.Status = entities.NeedStatusDraft
	case entities.CampaignKindFeed:
		campaign.Status = entities.FeedStatusDraft
		campaign.Threshold = nil
	default:
		return CreateCampaignResult{}, domainerrors.ErrInvalidCampaignInput
	}
	if !campaign.ValidateBasics() {
		return CreateCampaignResult{}, domainerrors.ErrInvalidCampaignInput
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateCampaignResult{}, err
	}
	entry, err := audit.NewEntry(auditID, ownerID, "campaign.created", "campaign", campaignID, map[string]any{
		"kind":   string(campaign.Kind),
		"status": campaign.Status.String(),
		"title":  campaign.Title,
	}, now)
	if err != nil {
		return CreateCampaignResult{}, err
	}

	if err := uc.Campaigns.CreateCampaign(ctx, campaign, entry); err != nil {
		return CreateCampaignResult{}, err
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", "campaign-lifecycle/campaign-service",
		"layer", "application",
		"campaign_id", campaignID,
		"kind", string(campaign.Kind),
	)
	return CreateCampaignResult{Campaign: campaign}, nil
}
