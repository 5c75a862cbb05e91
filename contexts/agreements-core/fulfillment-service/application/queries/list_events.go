package queries

import (
	"context"
	"log/slog"
	"strings"

	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	"covenant/contexts/agreements-core/fulfillment-service/ports"
)

type ListEventsUseCase struct {
	Assignments ports.AssignmentRepository
	Logger      *slog.Logger
}

func (uc ListEventsUseCase) Execute(ctx context.Context, assignmentID, actorID string) ([]entities.FulfillmentEvent, error) {
	assignment, err := uc.Assignments.GetAssignment(ctx, strings.TrimSpace(assignmentID))
	if err != nil {
		return nil, err
	}
	if !assignment.IsParty(actorID) {
		return nil, domainerrors.ErrForbidden
	}
	return uc.Assignments.ListFulfillmentEvents(ctx, assignment.AssignmentID)
}
