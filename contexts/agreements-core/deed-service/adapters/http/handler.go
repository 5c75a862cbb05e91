package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"covenant/contexts/agreements-core/deed-service/application/commands"
	"covenant/contexts/agreements-core/deed-service/application/queries"
	"covenant/contexts/agreements-core/deed-service/domain/entities"
	httptransport "covenant/contexts/agreements-core/deed-service/transport/http"
)

type Handler struct {
	CreateDeed       commands.CreateDeedUseCase
	OpenForSignature commands.OpenForSignatureUseCase
	SignDeed         commands.SignDeedUseCase
	AmendDeed        commands.AmendDeedUseCase
	VoidDeed         commands.VoidDeedUseCase
	GetDeed          queries.GetDeedUseCase
	VersionHistory   queries.GetVersionHistoryUseCase
	Logger           *slog.Logger
}

func (h Handler) CreateDeedHandler(ctx context.Context, userID string, req httptransport.CreateDeedRequest) (httptransport.DeedResponse, error) {
	deed, err := h.CreateDeed.Execute(ctx, commands.CreateDeedCommand{
		ActorID:     userID,
		Kind:        entities.DeedKind(req.Kind),
		ContextType: req.ContextType,
		ContextID:   req.ContextID,
		Document:    mapDocumentRequest(req.Document),
		Signers:     mapSignerRequests(req.Signers),
	})
	if err != nil {
		return httptransport.DeedResponse{}, err
	}
	return httptransport.DeedResponse{Deed: mapDeed(deed)}, nil
}

func (h Handler) OpenForSignatureHandler(ctx context.Context, userID, deedID string) (httptransport.DeedResponse, error) {
	deed, err := h.OpenForSignature.Execute(ctx, commands.OpenForSignatureCommand{
		DeedID:  deedID,
		ActorID: userID,
	})
	if err != nil {
		return httptransport.DeedResponse{}, err
	}
	return httptransport.DeedResponse{Deed: mapDeed(deed)}, nil
}

func (h Handler) SignDeedHandler(ctx context.Context, userID, deedID string) (httptransport.DeedResponse, error) {
	deed, err := h.SignDeed.Execute(ctx, commands.SignDeedCommand{
		DeedID:  deedID,
		ActorID: userID,
	})
	if err != nil {
		return httptransport.DeedResponse{}, err
	}
	return httptransport.DeedResponse{Deed: mapDeed(deed)}, nil
}

func (h Handler) AmendDeedHandler(ctx context.Context, userID, deedID string, req httptransport.AmendDeedRequest) (httptransport.DeedResponse, error) {
	deed, err := h.AmendDeed.Execute(ctx, commands.AmendDeedCommand{
		DeedID:   deedID,
		ActorID:  userID,
		Document: mapDocumentRequest(req.Document),
		Signers:  mapSignerRequests(req.Signers),
	})
	if err != nil {
		return httptransport.DeedResponse{}, err
	}
	return httptransport.DeedResponse{Deed: mapDeed(deed)}, nil
}

func (h Handler) VoidDeedHandler(ctx context.Context, userID, deedID string, req httptransport.VoidDeedRequest) (httptransport.DeedResponse, error) {
	deed, err := h.VoidDeed.Execute(ctx, commands.VoidDeedCommand{
		DeedID:  deedID,
		ActorID: userID,
		Reason:  req.Reason,
	})
	if err != nil {
		return httptransport.DeedResponse{}, err
	}
	return httptransport.DeedResponse{Deed: mapDeed(deed)}, nil
}

func (h Handler) GetDeedHandler(ctx context.Context, deedID string) (httptransport.DeedResponse, error) {
	deed, err := h.GetDeed.Execute(ctx, deedID)
	if err != nil {
		return httptransport.DeedResponse{}, err
	}
	return httptransport.DeedResponse{Deed: mapDeed(deed)}, nil
}

func (h Handler) VersionHistoryHandler(ctx context.Context, deedID string) (httptransport.VersionHistoryResponse, error) {
	chain, err := h.VersionHistory.Execute(ctx, deedID)
	if err != nil {
		return httptransport.VersionHistoryResponse{}, err
	}
	items := make([]httptransport.DeedDTO, 0, len(chain))
	for _, deed := range chain {
		items = append(items, mapDeed(deed))
	}
	return httptransport.VersionHistoryResponse{Items: items}, nil
}

func mapDocumentRequest(req httptransport.DeedDocumentDTO) entities.DeedDocument {
	rows := make([]entities.DocumentRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, entities.DocumentRow{
			ItemRef:   row.ItemRef,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	document := entities.DeedDocument{
		Title:     req.Title,
		ContextID: req.ContextID,
		Terms:     req.Terms,
		Rows:      rows,
	}
	if req.DraftedAt != "" {
		if at, err := time.Parse(time.RFC3339, req.DraftedAt); err == nil {
			document.DraftedAt = at.UTC()
		}
	}
	return document
}

func mapSignerRequests(reqs []httptransport.SignerRequest) []entities.DeedSigner {
	signers := make([]entities.DeedSigner, 0, len(reqs))
	for _, req := range reqs {
		signers = append(signers, entities.DeedSigner{
			UserID: req.UserID,
			Kind:   entities.SignerKind(req.Kind),
		})
	}
	return signers
}

func mapDeed(deed entities.Deed) httptransport.DeedDTO {
	rows := make([]httptransport.DocumentRowDTO, 0, len(deed.Document.Rows))
	for _, row := range deed.Document.Rows {
		rows = append(rows, httptransport.DocumentRowDTO{
			ItemRef:   row.ItemRef,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	signers := make([]httptransport.SignerDTO, 0, len(deed.Signers))
	for _, signer := range deed.Signers {
		dto := httptransport.SignerDTO{
			UserID: signer.UserID,
			Kind:   string(signer.Kind),
			Status: string(signer.Status),
		}
		if signer.SignedAt != nil {
			dto.SignedAt = signer.SignedAt.UTC().Format(time.RFC3339)
		}
		signers = append(signers, dto)
	}
	result := httptransport.DeedDTO{
		DeedID:      deed.DeedID,
		Kind:        string(deed.Kind),
		Status:      string(deed.Status),
		ContextType: deed.ContextType,
		ContextID:   deed.ContextID,
		Document: httptransport.DeedDocumentDTO{
			Title:     deed.Document.Title,
			ContextID: deed.Document.ContextID,
			Terms:     deed.Document.Terms,
			Rows:      rows,
			DraftedAt: deed.Document.DraftedAt.UTC().Format(time.RFC3339),
		},
		ContentHash: deed.ContentHash,
		Version:     deed.Version,
		PrevDeedID:  deed.PrevDeedID,
		Signers:     signers,
		CreatedAt:   deed.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   deed.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if deed.SignedAt != nil {
		result.SignedAt = deed.SignedAt.UTC().Format(time.RFC3339)
	}
	return result
}
