package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "covenant/contexts/agreements-core/fulfillment-service/application"
	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	"covenant/contexts/agreements-core/fulfillment-service/ports"
)

type CreateMilestoneCommand struct {
	AssignmentID string
	ActorID      string
	Title        string
	Description  string
	DueAt        *time.Time
}

// CreateMilestoneUseCase adds a milestone to an active assignment. Either
// party may plan milestones; only the supplier may later progress them.
type CreateMilestoneUseCase struct {
	Assignments ports.AssignmentRepository
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc CreateMilestoneUseCase) Execute(ctx context.Context, cmd CreateMilestoneCommand) (entities.Milestone, error) {
	logger := application.ResolveLogger(uc.Logger)

	actorID := strings.TrimSpace(cmd.ActorID)
	assignment, err := uc.Assignments.GetAssignment(ctx, strings.TrimSpace(cmd.AssignmentID))
	if err != nil {
		return entities.Milestone{}, err
	}
	if !assignment.IsParty(actorID) {
		return entities.Milestone{}, domainerrors.ErrForbidden
	}
	if assignment.Status != entities.AssignmentStatusActive {
		return entities.Milestone{}, domainerrors.ErrInvalidState
	}

	now := uc.Clock.Now().UTC()
	milestoneID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Milestone{}, err
	}
	milestone := entities.Milestone{
		MilestoneID:  milestoneID,
		AssignmentID: assignment.AssignmentID,
		Title:        strings.TrimSpace(cmd.Title),
		Description:  strings.TrimSpace(cmd.Description),
		DueAt:        cmd.DueAt,
		Status:       entities.MilestoneStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !milestone.Validate() {
		return entities.Milestone{}, domainerrors.ErrInvalidMilestoneInput
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Milestone{}, err
	}
	event := entities.FulfillmentEvent{
		EventID:      eventID,
		AssignmentID: assignment.AssignmentID,
		MilestoneID:  milestoneID,
		ActorID:      actorID,
		EventType:    "milestone.created",
		Payload: map[string]any{
			"title": milestone.Title,
		},
		CreatedAt: now,
	}
	if err := uc.Assignments.CreateMilestone(ctx, milestone, event); err != nil {
		return entities.Milestone{}, err
	}

	if uc.Notifier != nil {
		for _, userID := range assignment.OtherParties(actorID) {
			_ = uc.Notifier.Notify(ctx, userID, "milestone_created", "assignment", assignment.AssignmentID, map[string]any{
				"milestone_id": milestoneID,
				"title":        milestone.Title,
			})
		}
	}

	logger.Info("milestone created",
		"event", "milestone_created",
		"module", "agreements-core/fulfillment-service",
		"layer", "application",
		"assignment_id", assignment.AssignmentID,
		"milestone_id", milestoneID,
	)
	return milestone, nil
}
