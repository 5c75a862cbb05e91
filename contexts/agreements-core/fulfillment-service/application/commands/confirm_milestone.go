package commands

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/agreements-core/fulfillment-service/application"
	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	"covenant/contexts/agreements-core/fulfillment-service/ports"
	"covenant/internal/shared/events"
)

type ConfirmMilestoneCommand struct {
	MilestoneID string
	ActorID     string
}

// ConfirmMilestoneUseCase accepts a delivered milestone on behalf of the
// backers. The caller must hold a backer slot on the deed backing the
// assignment. The repository re-reads every milestone inside the accepting
// transaction; when all are accepted the assignment completes in the same
// transaction, so concurrent confirmations of different milestones cannot
// miss the final state.
type ConfirmMilestoneUseCase struct {
	Assignments ports.AssignmentRepository
	DeedSigners ports.DeedSignerGateway
	Notifier    ports.Notifier
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc ConfirmMilestoneUseCase) Execute(ctx context.Context, cmd ConfirmMilestoneCommand) (ports.ConfirmResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	actorID := strings.TrimSpace(cmd.ActorID)
	milestone, err := uc.Assignments.GetMilestone(ctx, strings.TrimSpace(cmd.MilestoneID))
	if err != nil {
		return ports.ConfirmResult{}, err
	}
	assignment, err := uc.Assignments.GetAssignment(ctx, milestone.AssignmentID)
	if err != nil {
		return ports.ConfirmResult{}, err
	}
	if assignment.Status != entities.AssignmentStatusActive {
		return ports.ConfirmResult{}, domainerrors.ErrInvalidState
	}
	if milestone.Status != entities.MilestoneStatusDelivered {
		return ports.ConfirmResult{}, domainerrors.ErrInvalidState
	}
	if assignment.DeedID == "" {
		return ports.ConfirmResult{}, domainerrors.ErrForbidden
	}
	isBacker, err := uc.DeedSigners.IsBackerSigner(ctx, assignment.DeedID, actorID)
	if err != nil {
		return ports.ConfirmResult{}, err
	}
	if !isBacker {
		return ports.ConfirmResult{}, domainerrors.ErrForbidden
	}

	now := uc.Clock.Now().UTC()
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.ConfirmResult{}, err
	}
	event := entities.FulfillmentEvent{
		EventID:      eventID,
		AssignmentID: assignment.AssignmentID,
		MilestoneID:  milestone.MilestoneID,
		ActorID:      actorID,
		EventType:    "milestone.accepted",
		Payload: map[string]any{
			"title": milestone.Title,
		},
		CreatedAt: now,
	}

	// Pre-build the aggregate pieces; the repository writes them only when
	// this confirmation turns out to be the last one.
	aggregateID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.ConfirmResult{}, err
	}
	aggregate := entities.FulfillmentEvent{
		EventID:      aggregateID,
		AssignmentID: assignment.AssignmentID,
		ActorID:      actorID,
		EventType:    "assignment.all_milestones_accepted",
		Payload: map[string]any{
			"feed_campaign_id": assignment.FeedCampaignID,
		},
		CreatedAt: now,
	}
	envelopeID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.ConfirmResult{}, err
	}
	envelope, err := events.New(envelopeID, "assignment.fulfilled", "fulfillment-service", assignment.AssignmentID, now, map[string]any{
		"assignment_id":    assignment.AssignmentID,
		"feed_campaign_id": assignment.FeedCampaignID,
		"need_campaign_id": assignment.NeedCampaignID,
	})
	if err != nil {
		return ports.ConfirmResult{}, err
	}

	result, err := uc.Assignments.ConfirmMilestone(ctx, ports.ConfirmInput{
		MilestoneID:    milestone.MilestoneID,
		At:             now,
		Event:          event,
		AggregateEvent: aggregate,
		Envelope:       &envelope,
	})
	if err != nil {
		return ports.ConfirmResult{}, err
	}

	if uc.Notifier != nil {
		for _, userID := range assignment.OtherParties(actorID) {
			_ = uc.Notifier.Notify(ctx, userID, "milestone_accepted", "assignment", assignment.AssignmentID, map[string]any{
				"milestone_id": milestone.MilestoneID,
			})
			if result.Fulfilled {
				_ = uc.Notifier.Notify(ctx, userID, "assignment_fulfilled", "assignment", assignment.AssignmentID, nil)
			}
		}
	}

	logger.Info("milestone confirmed",
		"event", "milestone_confirmed",
		"module", "agreements-core/fulfillment-service",
		"layer", "application",
		"assignment_id", assignment.AssignmentID,
		"milestone_id", milestone.MilestoneID,
		"assignment_fulfilled", result.Fulfilled,
	)
	return result, nil
}
