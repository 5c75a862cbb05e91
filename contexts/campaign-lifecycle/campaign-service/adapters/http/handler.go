package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"covenant/contexts/campaign-lifecycle/campaign-service/application/commands"
	"covenant/contexts/campaign-lifecycle/campaign-service/application/queries"
	"covenant/contexts/campaign-lifecycle/campaign-service/domain/entities"
	domainerrors "covenant/contexts/campaign-lifecycle/campaign-service/domain/errors"
	"covenant/contexts/campaign-lifecycle/campaign-service/ports"
	httptransport "covenant/contexts/campaign-lifecycle/campaign-service/transport/http"
)

type Handler struct {
	CreateCampaign    commands.CreateCampaignUseCase
	ChangeStatus      commands.ChangeStatusUseCase
	ModerateCampaign  commands.ModerateCampaignUseCase
	SeedCampaign      commands.SeedCampaignUseCase
	SubmitPledge      commands.SubmitPledgeUseCase
	GetCampaign       queries.GetCampaignUseCase
	ListCampaigns     queries.ListCampaignsUseCase
	EvaluateThreshold queries.EvaluateThresholdUseCase
	Logger            *slog.Logger
}

func (h Handler) CreateCampaignHandler(ctx context.Context, userID string, req httptransport.CreateCampaignRequest) (httptransport.CreateCampaignResponse, error) {
	threshold, err := mapThresholdRequest(req.Threshold)
	if err != nil {
		return httptransport.CreateCampaignResponse{}, domainerrors.ErrInvalidCampaignInput
	}
	result, err := h.CreateCampaign.Execute(ctx, commands.CreateCampaignCommand{
		OwnerID:     userID,
		Kind:        entities.CampaignKind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		Visibility:  entities.Visibility(req.Visibility),
		GroupID:     req.GroupID,
		Threshold:   threshold,
	})
	if err != nil {
		return httptransport.CreateCampaignResponse{}, err
	}
	return httptransport.CreateCampaignResponse{Campaign: mapCampaign(result.Campaign)}, nil
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID string) (httptransport.GetCampaignResponse, error) {
	item, err := h.GetCampaign.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.GetCampaignResponse{}, err
	}
	dto := mapCampaign(item)
	if _, ok := item.NeedStatus(); ok && item.Threshold != nil {
		status, err := h.EvaluateThreshold.Execute(ctx, campaignID)
		if err == nil {
			dto.ThresholdStatus = &httptransport.ThresholdStatusDTO{
				Current: status.Current,
				Target:  status.Target,
				Type:    string(status.Type),
				Met:     status.Met,
			}
		}
	}
	return httptransport.GetCampaignResponse{Campaign: dto}, nil
}

func (h Handler) ListCampaignsHandler(ctx context.Context, ownerID, kind, status string) (httptransport.ListCampaignsResponse, error) {
	items, err := h.ListCampaigns.Execute(ctx, ports.CampaignFilter{
		OwnerID: strings.TrimSpace(ownerID),
		Kind:    entities.CampaignKind(strings.TrimSpace(kind)),
		Status:  strings.TrimSpace(status),
	})
	if err != nil {
		return httptransport.ListCampaignsResponse{}, err
	}
	result := make([]httptransport.CampaignDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapCampaign(item))
	}
	return httptransport.ListCampaignsResponse{Items: result}, nil
}

func (h Handler) SubmitCampaignHandler(ctx context.Context, userID, campaignID, reason string) (httptransport.GetCampaignResponse, error) {
	updated, err := h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{
		CampaignID: campaignID,
		ActorID:    userID,
		Action:     commands.StatusActionSubmit,
		Reason:     reason,
	})
	if err != nil {
		return httptransport.GetCampaignResponse{}, err
	}
	return httptransport.GetCampaignResponse{Campaign: mapCampaign(updated)}, nil
}

func (h Handler) PublishCampaignHandler(ctx context.Context, userID, campaignID, reason string) (httptransport.GetCampaignResponse, error) {
	updated, err := h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{
		CampaignID: campaignID,
		ActorID:    userID,
		Action:     commands.StatusActionPublish,
		Reason:     reason,
	})
	if err != nil {
		return httptransport.GetCampaignResponse{}, err
	}
	return httptransport.GetCampaignResponse{Campaign: mapCampaign(updated)}, nil
}

// TransitionCampaignHandler serves the manual seed escape hatch.
func (h Handler) TransitionCampaignHandler(ctx context.Context, userID, campaignID string, req httptransport.TransitionCampaignRequest) (httptransport.SeedCampaignResponse, error) {
	if req.Action != "seed" {
		return httptransport.SeedCampaignResponse{}, domainerrors.ErrInvalidStateTransition
	}
	result, err := h.SeedCampaign.Execute(ctx, commands.SeedCampaignCommand{
		CampaignID: campaignID,
		ActorID:    userID,
		Reason:     req.Reason,
	})
	if err != nil {
		return httptransport.SeedCampaignResponse{}, err
	}
	return httptransport.SeedCampaignResponse{
		Need: mapCampaign(result.Need),
		Feed: mapCampaign(result.Feed),
	}, nil
}

func (h Handler) ModerateCampaignHandler(ctx context.Context, userID, campaignID string, req httptransport.ModerateCampaignRequest) (httptransport.GetCampaignResponse, error) {
	updated, err := h.ModerateCampaign.Execute(ctx, commands.ModerateCampaignCommand{
		CampaignID: campaignID,
		ActorID:    userID,
		Action:     commands.ModerateAction(req.Action),
		Reason:     req.Reason,
	})
	if err != nil {
		return httptransport.GetCampaignResponse{}, err
	}
	return httptransport.GetCampaignResponse{Campaign: mapCampaign(updated)}, nil
}

func (h Handler) SubmitPledgeHandler(ctx context.Context, userID, campaignID string, req httptransport.SubmitPledgeRequest) (httptransport.SubmitPledgeResponse, error) {
	rows := make([]entities.PledgeRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, entities.PledgeRow{
			ItemRef:   row.ItemRef,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	pledge, err := h.SubmitPledge.Execute(ctx, commands.SubmitPledgeCommand{
		CampaignID: campaignID,
		BackerID:   userID,
		Rows:       rows,
	})
	if err != nil {
		return httptransport.SubmitPledgeResponse{}, err
	}
	return httptransport.SubmitPledgeResponse{Pledge: mapPledge(pledge)}, nil
}

func (h Handler) ThresholdStatusHandler(ctx context.Context, campaignID string) (httptransport.ThresholdStatusDTO, error) {
	status, err := h.EvaluateThreshold.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.ThresholdStatusDTO{}, err
	}
	return httptransport.ThresholdStatusDTO{
		Current: status.Current,
		Target:  status.Target,
		Type:    string(status.Type),
		Met:     status.Met,
	}, nil
}

func mapCampaign(item entities.Campaign) httptransport.CampaignDTO {
	result := httptransport.CampaignDTO{
		CampaignID:           item.CampaignID,
		Kind:                 string(item.Kind),
		OwnerID:              item.OwnerID,
		Title:                item.Title,
		Description:          item.Description,
		Visibility:           string(item.Visibility),
		GroupID:              item.GroupID,
		SourceNeedCampaignID: item.SourceNeedCampaignID,
		Status:               item.Status.String(),
		CreatedAt:            item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            item.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.Threshold != nil {
		result.Threshold = &httptransport.ThresholdDTO{
			Type:     string(item.Threshold.Type),
			Target:   item.Threshold.Target,
			Deadline: item.Threshold.Deadline.UTC().Format(time.RFC3339),
			Deposit: httptransport.DepositTermsDTO{
				Percent: item.Threshold.Deposit.Percent,
				DueDays: item.Threshold.Deposit.DueDays,
				Extra:   item.Threshold.Deposit.Extra,
			},
			Payment: httptransport.PaymentTermsDTO{
				Method:  item.Threshold.Payment.Method,
				NetDays: item.Threshold.Payment.NetDays,
				Extra:   item.Threshold.Payment.Extra,
			},
			Delivery: httptransport.DeliveryTermsDTO{
				Mode:       item.Threshold.Delivery.Mode,
				WindowDays: item.Threshold.Delivery.WindowDays,
				Extra:      item.Threshold.Delivery.Extra,
			},
			Cancellation: httptransport.CancelTermsDTO{
				WindowDays: item.Threshold.Cancellation.WindowDays,
				FeePercent: item.Threshold.Cancellation.FeePercent,
				Extra:      item.Threshold.Cancellation.Extra,
			},
		}
	}
	if item.SeededAt != nil {
		result.SeededAt = item.SeededAt.UTC().Format(time.RFC3339)
	}
	return result
}

func mapPledge(item entities.Pledge) httptransport.PledgeDTO {
	rows := make([]httptransport.PledgeRowDTO, 0, len(item.Rows))
	for _, row := range item.Rows {
		rows = append(rows, httptransport.PledgeRowDTO{
			RowID:     row.RowID,
			ItemRef:   row.ItemRef,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	return httptransport.PledgeDTO{
		PledgeID:   item.PledgeID,
		CampaignID: item.CampaignID,
		BackerID:   item.BackerID,
		Rows:       rows,
		CreatedAt:  item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapThresholdRequest(req *httptransport.ThresholdRequest) (*entities.ThresholdDefinition, error) {
	if req == nil {
		return nil, nil
	}
	deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Deadline))
	if err != nil {
		return nil, fmt.Errorf("parse deadline: %w", err)
	}
	return &entities.ThresholdDefinition{
		Type:     entities.ThresholdType(req.Type),
		Target:   req.Target,
		Deadline: deadline.UTC(),
		Deposit: entities.DepositTerms{
			Percent: req.Deposit.Percent,
			DueDays: req.Deposit.DueDays,
			Extra:   req.Deposit.Extra,
		},
		Payment: entities.PaymentTerms{
			Method:  req.Payment.Method,
			NetDays: req.Payment.NetDays,
			Extra:   req.Payment.Extra,
		},
		Delivery: entities.DeliveryTerms{
			Mode:       req.Delivery.Mode,
			WindowDays: req.Delivery.WindowDays,
			Extra:      req.Delivery.Extra,
		},
		Cancellation: entities.CancellationTerms{
			WindowDays: req.Cancellation.WindowDays,
			FeePercent: req.Cancellation.FeePercent,
			Extra:      req.Cancellation.Extra,
		},
	}, nil
}
