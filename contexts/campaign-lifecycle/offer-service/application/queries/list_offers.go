package queries

import (
	"context"
	"log/slog"
	"strings"

	"covenant/contexts/campaign-lifecycle/offer-service/domain/entities"
	"covenant/contexts/campaign-lifecycle/offer-service/ports"
)

type ListOffersUseCase struct {
	Offers ports.OfferRepository
	Logger *slog.Logger
}

func (uc ListOffersUseCase) Execute(ctx context.Context, campaignID string) ([]entities.SupplierOffer, error) {
	return uc.Offers.ListOffersByCampaign(ctx, strings.TrimSpace(campaignID))
}
