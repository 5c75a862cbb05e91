package commands

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/campaign-lifecycle/offer-service/application"
	"covenant/contexts/campaign-lifecycle/offer-service/domain/entities"
	domainerrors "covenant/contexts/campaign-lifecycle/offer-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/offer-service/ports"
	"covenant/internal/shared/audit"
)

type SignOfferCommand struct {
	OfferID string
	ActorID string
}

// SignOfferUseCase binds the supplier to the offer terms. Only the offer's
// own supplier may sign, and only from submitted.
type SignOfferUseCase struct {
	Offers ports.OfferRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc SignOfferUseCase) Execute(ctx context.Context, cmd SignOfferCommand) (entities.SupplierOffer, error) {
	logger := application.ResolveLogger(uc.Logger)

	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return entities.SupplierOffer{}, domainerrors.ErrForbidden
	}

	offer, err := uc.Offers.GetOffer(ctx, strings.TrimSpace(cmd.OfferID))
	if err != nil {
		return entities.SupplierOffer{}, err
	}
	if offer.SupplierID != actorID {
		return entities.SupplierOffer{}, domainerrors.ErrForbidden
	}
	if offer.Status != entities.OfferStatusSubmitted {
		return entities.SupplierOffer{}, domainerrors.ErrInvalidState
	}

	now := uc.Clock.Now().UTC()
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.SupplierOffer{}, err
	}
	entry, err := audit.NewEntry(auditID, actorID, "offer.signed", "supplier_offer", offer.OfferID, map[string]any{
		"campaign_id": offer.CampaignID,
		"from":        string(entities.OfferStatusSubmitted),
		"to":          string(entities.OfferStatusSigned),
	}, now)
	if err != nil {
		return entities.SupplierOffer{}, err
	}

	signed, err := uc.Offers.SignOffer(ctx, offer.OfferID, actorID, now, entry)
	if err != nil {
		return entities.SupplierOffer{}, err
	}

	logger.Info("supplier offer signed",
		"event", "offer_signed",
		"module", "campaign-lifecycle/offer-service",
		"layer", "application",
		"offer_id", offer.OfferID,
		"campaign_id", offer.CampaignID,
		"supplier_id", actorID,
	)
	return signed, nil
}
