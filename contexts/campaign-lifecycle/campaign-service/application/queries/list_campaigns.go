package queries

import (
	"context"
	"log/slog"

	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
)

type ListCampaignsUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc ListCampaignsUseCase) Execute(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	return uc.Campaigns.ListCampaigns(ctx, filter)
}
