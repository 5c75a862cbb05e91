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

type FlagDisputedCommand struct {
	AssignmentID string
	MilestoneID  string
	ActorID      string
	Reason       string
}

// FlagDisputedUseCase freezes an assignment while a dispute runs. Called
// from the dispute workflow, not exposed as a direct route.
type FlagDisputedUseCase struct {
	Assignments ports.AssignmentRepository
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc FlagDisputedUseCase) Execute(ctx context.Context, cmd FlagDisputedCommand) (entities.Assignment, error) {
	logger := application.ResolveLogger(uc.Logger)

	assignment, err := uc.Assignments.GetAssignment(ctx, strings.TrimSpace(cmd.AssignmentID))
	if err != nil {
		return entities.Assignment{}, err
	}
	if assignment.Status == entities.AssignmentStatusDisputed {
		return assignment, nil
	}
	if assignment.Status != entities.AssignmentStatusActive {
		return entities.Assignment{}, domainerrors.ErrInvalidState
	}

	now := uc.Clock.Now().UTC()
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Assignment{}, err
	}
	event := entities.FulfillmentEvent{
		EventID:      eventID,
		AssignmentID: assignment.AssignmentID,
		MilestoneID:  strings.TrimSpace(cmd.MilestoneID),
		ActorID:      strings.TrimSpace(cmd.ActorID),
		EventType:    "assignment.disputed",
		Payload: map[string]any{
			"reason": strings.TrimSpace(cmd.Reason),
		},
		CreatedAt: now,
	}
	updated, err := uc.Assignments.FlagDisputed(ctx, ports.DisputeFlagInput{
		AssignmentID: assignment.AssignmentID,
		MilestoneID:  strings.TrimSpace(cmd.MilestoneID),
		At:           now,
		Event:        event,
	})
	if err != nil {
		return entities.Assignment{}, err
	}

	if uc.Notifier != nil {
		for _, userID := range assignment.OtherParties(cmd.ActorID) {
			_ = uc.Notifier.Notify(ctx, userID, "assignment_disputed", "assignment", assignment.AssignmentID, map[string]any{
				"reason": strings.TrimSpace(cmd.Reason),
			})
		}
	}

	logger.Info("assignment flagged disputed",
		"event", "assignment_disputed",
		"module", "agreements-core/fulfillment-service",
		"layer", "application",
		"assignment_id", assignment.AssignmentID,
	)
	return updated, nil
}
