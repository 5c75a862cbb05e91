package queries

import (
	"context"
	"log/slog"
	"strings"

	"covenant/contexts/campaign-lifecycle/offer-service/domain/entities"
	"covenant/contexts/campaign-lifecycle/offer-service/ports"
)

type GetOfferUseCase struct {
	Offers ports.OfferRepository
	Logger *slog.Logger
}

func (uc GetOfferUseCase) Execute(ctx context.Context, offerID string) (entities.SupplierOffer, error) {
	return uc.Offers.GetOffer(ctx, strings.TrimSpace(offerID))
}
