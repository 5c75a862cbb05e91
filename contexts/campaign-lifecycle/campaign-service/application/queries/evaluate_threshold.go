package queries

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/campaign-lifecycle/campaign-service/application"
	domainerrors "covenant/contexts/campaign-lifecycle/campaign-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/campaign-service/domain/services"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
)

// EvaluateThresholdUseCase recomputes the threshold readout from pledge
// rows on every call. No caching; staleness is worse than the extra read.
type EvaluateThresholdUseCase struct {
	Campaigns ports.CampaignRepository
	Pledges   ports.PledgeRepository
	Logger    *slog.Logger
}

func (uc EvaluateThresholdUseCase) Execute(ctx context.Context, campaignID string) (services.ThresholdResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return services.ThresholdResult{}, err
	}
	if _, ok := campaign.NeedStatus(); !ok || campaign.Threshold == nil {
		return services.ThresholdResult{}, domainerrors.ErrNotNeedCampaign
	}

	pledges, err := uc.Pledges.ListPledges(ctx, campaign.CampaignID)
	if err != nil {
		return services.ThresholdResult{}, err
	}
	result := services.EvaluateThreshold(*campaign.Threshold, pledges)

	logger.Debug("threshold evaluated",
		"event", "threshold_evaluated",
		"module", "campaign-lifecycle/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"current", result.Current,
		"target", result.Target,
		"met", result.Met,
	)
	return result, nil
}
