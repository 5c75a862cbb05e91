package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"covenant/contexts/moderation-safety/dispute-service/application"
	"covenant/contexts/moderation-safety/dispute-service/domain/entities"
	httptransport "covenant/contexts/moderation-safety/dispute-service/transport/http"
	"covenant/internal/shared/audit"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) OpenDisputeHandler(ctx context.Context, userID string, req httptransport.OpenDisputeRequest) (httptransport.DisputeResponse, error) {
	dispute, err := h.Service.Open(ctx, userID, application.OpenDisputeInput{
		ContextType: req.ContextType,
		ContextID:   req.ContextID,
		Reason:      req.Reason,
		MilestoneID: req.MilestoneID,
	})
	if err != nil {
		return httptransport.DisputeResponse{}, err
	}
	return httptransport.DisputeResponse{Dispute: mapDispute(dispute)}, nil
}

func (h Handler) GetDisputeHandler(ctx context.Context, userID, disputeID string) (httptransport.DisputeDetailResponse, error) {
	view, err := h.Service.Get(ctx, userID, disputeID)
	if err != nil {
		return httptransport.DisputeDetailResponse{}, err
	}
	evidence := make([]httptransport.EvidenceEntryDTO, 0, len(view.Evidence))
	for _, entry := range view.Evidence {
		evidence = append(evidence, mapEvidence(entry))
	}
	return httptransport.DisputeDetailResponse{
		Dispute:  mapDispute(view.Dispute),
		Evidence: evidence,
	}, nil
}

func (h Handler) ResolveDisputeHandler(ctx context.Context, idempotencyKey, userID, disputeID string, req httptransport.ResolveDisputeRequest) (httptransport.DisputeResponse, error) {
	dispute, err := h.Service.Resolve(ctx, idempotencyKey, userID, application.ResolveInput{
		DisputeID: disputeID,
		Action:    req.Action,
		Notes:     req.Notes,
	})
	if err != nil {
		return httptransport.DisputeResponse{}, err
	}
	return httptransport.DisputeResponse{Dispute: mapDispute(dispute)}, nil
}

func mapDispute(item entities.Dispute) httptransport.DisputeDTO {
	result := httptransport.DisputeDTO{
		DisputeID:       item.DisputeID,
		ContextType:     item.ContextType,
		ContextID:       item.ContextID,
		OpenerID:        item.OpenerID,
		Reason:          item.Reason,
		Status:          string(item.Status),
		ResolutionNotes: item.ResolutionNotes,
		ResolverID:      item.ResolverID,
		CreatedAt:       item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.ResolvedAt != nil {
		result.ResolvedAt = item.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return result
}

func mapEvidence(entry audit.Entry) httptransport.EvidenceEntryDTO {
	result := httptransport.EvidenceEntryDTO{
		AuditID:    entry.AuditID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(entry.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(entry.Payload, &payload); err == nil {
			result.Payload = payload
		}
	}
	return result
}
