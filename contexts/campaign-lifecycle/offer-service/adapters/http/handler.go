package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"covenant/contexts/campaign-lifecycle/offer-service/application/commands"
	"covenant/contexts/campaign-lifecycle/offer-service/application/queries"
	"covenant/contexts/campaign-lifecycle/offer-service/domain/entities"
	httptransport "covenant/contexts/campaign-lifecycle/offer-service/transport/http"
)

type Handler struct {
	SubmitOffer commands.SubmitOfferUseCase
	SignOffer   commands.SignOfferUseCase
	SelectOffer commands.SelectOfferUseCase
	GetOffer    queries.GetOfferUseCase
	ListOffers  queries.ListOffersUseCase
	Logger      *slog.Logger
}

func (h Handler) SubmitOfferHandler(ctx context.Context, userID string, req httptransport.SubmitOfferRequest) (httptransport.OfferResponse, error) {
	rows := make([]entities.OfferRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, entities.OfferRow{
			ItemRef:   row.ItemRef,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	offer, err := h.SubmitOffer.Execute(ctx, commands.SubmitOfferCommand{
		CampaignID: req.CampaignID,
		SupplierID: userID,
		Rows:       rows,
		Terms: entities.OfferTerms{
			DeliveryDays: req.Terms.DeliveryDays,
			Notes:        req.Terms.Notes,
			Extra:        req.Terms.Extra,
		},
	})
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Offer: mapOffer(offer)}, nil
}

func (h Handler) SignOfferHandler(ctx context.Context, userID, offerID string) (httptransport.OfferResponse, error) {
	offer, err := h.SignOffer.Execute(ctx, commands.SignOfferCommand{
		OfferID: offerID,
		ActorID: userID,
	})
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Offer: mapOffer(offer)}, nil
}

func (h Handler) SelectOfferHandler(ctx context.Context, userID, campaignID string, req httptransport.SelectOfferRequest) (httptransport.SelectOfferResponse, error) {
	result, err := h.SelectOffer.Execute(ctx, commands.SelectOfferCommand{
		CampaignID: campaignID,
		OfferID:    req.OfferID,
		ActorID:    userID,
	})
	if err != nil {
		return httptransport.SelectOfferResponse{}, err
	}
	return httptransport.SelectOfferResponse{
		Winner:           mapOffer(result.Winner),
		RejectedOfferIDs: append([]string(nil), result.RejectedOfferIDs...),
		AssignmentID:     result.AssignmentID,
	}, nil
}

func (h Handler) GetOfferHandler(ctx context.Context, offerID string) (httptransport.OfferResponse, error) {
	offer, err := h.GetOffer.Execute(ctx, offerID)
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Offer: mapOffer(offer)}, nil
}

func (h Handler) ListOffersHandler(ctx context.Context, campaignID string) (httptransport.ListOffersResponse, error) {
	items, err := h.ListOffers.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.ListOffersResponse{}, err
	}
	result := make([]httptransport.OfferDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapOffer(item))
	}
	return httptransport.ListOffersResponse{Items: result}, nil
}

func mapOffer(item entities.SupplierOffer) httptransport.OfferDTO {
	rows := make([]httptransport.OfferRowDTO, 0, len(item.Rows))
	for _, row := range item.Rows {
		rows = append(rows, httptransport.OfferRowDTO{
			RowID:     row.RowID,
			ItemRef:   row.ItemRef,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	result := httptransport.OfferDTO{
		OfferID:    item.OfferID,
		CampaignID: item.CampaignID,
		SupplierID: item.SupplierID,
		Status:     string(item.Status),
		Rows:       rows,
		Terms: httptransport.OfferTermsDTO{
			DeliveryDays: item.Terms.DeliveryDays,
			Notes:        item.Terms.Notes,
			Extra:        item.Terms.Extra,
		},
		TotalValue: item.TotalValue(),
		CreatedAt:  item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  item.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.SignedAt != nil {
		result.SignedAt = item.SignedAt.UTC().Format(time.RFC3339)
	}
	return result
}
