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

type SubmitOfferCommand struct {
	CampaignID string
	SupplierID string
	Rows       []entities.OfferRow
	Terms      entities.OfferTerms
}

type SubmitOfferUseCase struct {
	Offers    ports.OfferRepository
	Campaigns ports.FeedCampaignGateway
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc SubmitOfferUseCase) Execute(ctx context.Context, cmd SubmitOfferCommand) (entities.SupplierOffer, error) {
	logger := application.ResolveLogger(uc.Logger)

	supplierID := strings.TrimSpace(cmd.SupplierID)
	if supplierID == "" {
		return entities.SupplierOffer{}, domainerrors.ErrInvalidOfferInput
	}

	campaign, err := uc.Campaigns.GetFeedCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return entities.SupplierOffer{}, err
	}
	if campaign.Status != "open" {
		return entities.SupplierOffer{}, domainerrors.ErrCampaignNotOpen
	}

	now := uc.Clock.Now().UTC()
	offerID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.SupplierOffer{}, err
	}
	rows := make([]entities.OfferRow, 0, len(cmd.Rows))
	for _, row := range cmd.Rows {
		rowID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.SupplierOffer{}, err
		}
		row.RowID = rowID
		rows = append(rows, row)
	}
	offer := entities.SupplierOffer{
		OfferID:    offerID,
		CampaignID: campaign.CampaignID,
		SupplierID: supplierID,
		Status:     entities.OfferStatusSubmitted,
		Rows:       rows,
		Terms:      cmd.Terms,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if !offer.Validate() {
		return entities.SupplierOffer{}, domainerrors.ErrInvalidOfferInput
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.SupplierOffer{}, err
	}
	entry, err := audit.NewEntry(auditID, supplierID, "offer.submitted", "supplier_offer", offerID, map[string]any{
		"campaign_id": campaign.CampaignID,
		"row_count":   len(rows),
		"total_value": offer.TotalValue(),
	}, now)
	if err != nil {
		return entities.SupplierOffer{}, err
	}

	if err := uc.Offers.CreateOffer(ctx, offer, entry); err != nil {
		return entities.SupplierOffer{}, err
	}

	logger.Info("supplier offer submitted",
		"event", "offer_submitted",
		"module", "campaign-lifecycle/offer-service",
		"layer", "application",
		"offer_id", offerID,
		"campaign_id", campaign.CampaignID,
		"supplier_id", supplierID,
	)
	return offer, nil
}
