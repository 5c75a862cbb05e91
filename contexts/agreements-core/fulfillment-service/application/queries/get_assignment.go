package queries

import (
	"context"
	"log/slog"
	"strings"

	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	"covenant/contexts/agreements-core/fulfillment-service/ports"
)

type AssignmentView struct {
	Assignment entities.Assignment
	Milestones []entities.Milestone
}

type GetAssignmentUseCase struct {
	Assignments ports.AssignmentRepository
	Logger      *slog.Logger
}

// Execute returns the assignment with its milestone plan. Restricted to
// the assignment parties.
func (uc GetAssignmentUseCase) Execute(ctx context.Context, assignmentID, actorID string) (AssignmentView, error) {
	assignment, err := uc.Assignments.GetAssignment(ctx, strings.TrimSpace(assignmentID))
	if err != nil {
		return AssignmentView{}, err
	}
	if !assignment.IsParty(actorID) {
		return AssignmentView{}, domainerrors.ErrForbidden
	}
	milestones, err := uc.Assignments.ListMilestones(ctx, assignment.AssignmentID)
	if err != nil {
		return AssignmentView{}, err
	}
	return AssignmentView{Assignment: assignment, Milestones: milestones}, nil
}
