package commands

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/agreements-core/fulfillment-service/application"
	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	"covenant/contexts/agreements-core/fulfillment-service/ports"
)

type UpdateMilestoneCommand struct {
	MilestoneID string
	ActorID     string
	Status      entities.MilestoneStatus
	ProofURL    string
	Notes       string
}

// UpdateMilestoneUseCase lets the selected supplier report progress. Only
// in_progress, delivered and failed are reachable this way; acceptance
// belongs to confirmation.
type UpdateMilestoneUseCase struct {
	Assignments ports.AssignmentRepository
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc UpdateMilestoneUseCase) Execute(ctx context.Context, cmd UpdateMilestoneCommand) (entities.Milestone, error) {
	logger := application.ResolveLogger(uc.Logger)

	if !entities.IsSupplierStatus(cmd.Status) {
		return entities.Milestone{}, domainerrors.ErrInvalidMilestoneInput
	}

	milestone, err := uc.Assignments.GetMilestone(ctx, strings.TrimSpace(cmd.MilestoneID))
	if err != nil {
		return entities.Milestone{}, err
	}
	assignment, err := uc.Assignments.GetAssignment(ctx, milestone.AssignmentID)
	if err != nil {
		return entities.Milestone{}, err
	}
	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID != assignment.SupplierID {
		return entities.Milestone{}, domainerrors.ErrForbidden
	}
	if assignment.Status != entities.AssignmentStatusActive {
		return entities.Milestone{}, domainerrors.ErrInvalidState
	}
	switch milestone.Status {
	case entities.MilestoneStatusAccepted, entities.MilestoneStatusDisputed:
		return entities.Milestone{}, domainerrors.ErrInvalidState
	}

	now := uc.Clock.Now().UTC()
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Milestone{}, err
	}
	event := entities.FulfillmentEvent{
		EventID:      eventID,
		AssignmentID: assignment.AssignmentID,
		MilestoneID:  milestone.MilestoneID,
		ActorID:      actorID,
		EventType:    "milestone.updated",
		Payload: map[string]any{
			"from": string(milestone.Status),
			"to":   string(cmd.Status),
		},
		CreatedAt: now,
	}
	updated, err := uc.Assignments.UpdateMilestone(ctx, ports.UpdateMilestoneInput{
		MilestoneID: milestone.MilestoneID,
		From:        milestone.Status,
		To:          cmd.Status,
		ProofURL:    strings.TrimSpace(cmd.ProofURL),
		Notes:       strings.TrimSpace(cmd.Notes),
		At:          now,
		Event:       event,
	})
	if err != nil {
		return entities.Milestone{}, err
	}

	if uc.Notifier != nil {
		for _, userID := range assignment.OtherParties(actorID) {
			_ = uc.Notifier.Notify(ctx, userID, "milestone_updated", "assignment", assignment.AssignmentID, map[string]any{
				"milestone_id": milestone.MilestoneID,
				"status":       string(updated.Status),
			})
		}
	}

	logger.Info("milestone updated",
		"event", "milestone_updated",
		"module", "agreements-core/fulfillment-service",
		"layer", "application",
		"assignment_id", assignment.AssignmentID,
		"milestone_id", milestone.MilestoneID,
		"status", string(updated.Status),
	)
	return updated, nil
}
