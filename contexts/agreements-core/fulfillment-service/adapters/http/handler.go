package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"covenant/contexts/agreements-core/fulfillment-service/application/commands"
	"covenant/contexts/agreements-core/fulfillment-service/application/queries"
	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	httptransport "covenant/contexts/agreements-core/fulfillment-service/transport/http"
)

type Handler struct {
	CreateMilestone  commands.CreateMilestoneUseCase
	UpdateMilestone  commands.UpdateMilestoneUseCase
	ConfirmMilestone commands.ConfirmMilestoneUseCase
	GetAssignment    queries.GetAssignmentUseCase
	ListEvents       queries.ListEventsUseCase
	Logger           *slog.Logger
}

func (h Handler) CreateMilestoneHandler(ctx context.Context, userID, assignmentID string, req httptransport.CreateMilestoneRequest) (httptransport.MilestoneResponse, error) {
	cmd := commands.CreateMilestoneCommand{
		AssignmentID: assignmentID,
		ActorID:      userID,
		Title:        req.Title,
		Description:  req.Description,
	}
	if req.DueAt != "" {
		if at, err := time.Parse(time.RFC3339, req.DueAt); err == nil {
			due := at.UTC()
			cmd.DueAt = &due
		}
	}
	milestone, err := h.CreateMilestone.Execute(ctx, cmd)
	if err != nil {
		return httptransport.MilestoneResponse{}, err
	}
	return httptransport.MilestoneResponse{Milestone: mapMilestone(milestone)}, nil
}

func (h Handler) UpdateMilestoneHandler(ctx context.Context, userID, milestoneID string, req httptransport.UpdateMilestoneRequest) (httptransport.MilestoneResponse, error) {
	milestone, err := h.UpdateMilestone.Execute(ctx, commands.UpdateMilestoneCommand{
		MilestoneID: milestoneID,
		ActorID:     userID,
		Status:      entities.MilestoneStatus(req.Status),
		ProofURL:    req.ProofURL,
		Notes:       req.Notes,
	})
	if err != nil {
		return httptransport.MilestoneResponse{}, err
	}
	return httptransport.MilestoneResponse{Milestone: mapMilestone(milestone)}, nil
}

func (h Handler) ConfirmMilestoneHandler(ctx context.Context, userID, milestoneID string) (httptransport.ConfirmMilestoneResponse, error) {
	result, err := h.ConfirmMilestone.Execute(ctx, commands.ConfirmMilestoneCommand{
		MilestoneID: milestoneID,
		ActorID:     userID,
	})
	if err != nil {
		return httptransport.ConfirmMilestoneResponse{}, err
	}
	return httptransport.ConfirmMilestoneResponse{
		Milestone:           mapMilestone(result.Milestone),
		AssignmentStatus:    string(result.Assignment.Status),
		AssignmentFulfilled: result.Fulfilled,
	}, nil
}

func (h Handler) GetAssignmentHandler(ctx context.Context, userID, assignmentID string) (httptransport.AssignmentResponse, error) {
	view, err := h.GetAssignment.Execute(ctx, assignmentID, userID)
	if err != nil {
		return httptransport.AssignmentResponse{}, err
	}
	return httptransport.AssignmentResponse{Assignment: mapAssignment(view)}, nil
}

func (h Handler) ListEventsHandler(ctx context.Context, userID, assignmentID string) (httptransport.ListFulfillmentEventsResponse, error) {
	items, err := h.ListEvents.Execute(ctx, assignmentID, userID)
	if err != nil {
		return httptransport.ListFulfillmentEventsResponse{}, err
	}
	result := make([]httptransport.FulfillmentEventDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.FulfillmentEventDTO{
			EventID:      item.EventID,
			AssignmentID: item.AssignmentID,
			MilestoneID:  item.MilestoneID,
			ActorID:      item.ActorID,
			EventType:    item.EventType,
			Payload:      item.Payload,
			CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return httptransport.ListFulfillmentEventsResponse{Items: result}, nil
}

func mapMilestone(item entities.Milestone) httptransport.MilestoneDTO {
	result := httptransport.MilestoneDTO{
		MilestoneID:  item.MilestoneID,
		AssignmentID: item.AssignmentID,
		Title:        item.Title,
		Description:  item.Description,
		Status:       string(item.Status),
		ProofURL:     item.ProofURL,
		Notes:        item.Notes,
		CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    item.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.DueAt != nil {
		result.DueAt = item.DueAt.UTC().Format(time.RFC3339)
	}
	return result
}

func mapAssignment(view queries.AssignmentView) httptransport.AssignmentDTO {
	milestones := make([]httptransport.MilestoneDTO, 0, len(view.Milestones))
	for _, item := range view.Milestones {
		milestones = append(milestones, mapMilestone(item))
	}
	result := httptransport.AssignmentDTO{
		AssignmentID:   view.Assignment.AssignmentID,
		NeedCampaignID: view.Assignment.NeedCampaignID,
		FeedCampaignID: view.Assignment.FeedCampaignID,
		OfferID:        view.Assignment.OfferID,
		SupplierID:     view.Assignment.SupplierID,
		OwnerID:        view.Assignment.OwnerID,
		DeedID:         view.Assignment.DeedID,
		Status:         string(view.Assignment.Status),
		Milestones:     milestones,
		CreatedAt:      view.Assignment.CreatedAt.UTC().Format(time.RFC3339),
	}
	if view.Assignment.FulfilledAt != nil {
		result.FulfilledAt = view.Assignment.FulfilledAt.UTC().Format(time.RFC3339)
	}
	return result
}
