package queries

import (
	"context"
	"log/slog"
	"strings"

	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
)

type GetCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(campaignID))
}
