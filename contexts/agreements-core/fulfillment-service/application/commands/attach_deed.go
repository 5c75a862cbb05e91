package commands

import (
	"context"
	"log/slog"
	"strings"

	application "covenant/contexts/agreements-core/fulfillment-service/application"
	domainerrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	"covenant/contexts/agreements-core/fulfillment-service/ports"
)

type AttachDeedCommand struct {
	AssignmentID string
	DeedID       string
}

// AttachDeedUseCase stamps the deed created for a selection onto its
// assignment. Runs from internal wiring after deed creation; until it runs,
// milestone confirmation has no backer roster and is rejected.
type AttachDeedUseCase struct {
	Assignments ports.AssignmentRepository
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (uc AttachDeedUseCase) Execute(ctx context.Context, cmd AttachDeedCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	deedID := strings.TrimSpace(cmd.DeedID)
	if deedID == "" {
		return domainerrors.ErrInvalidMilestoneInput
	}
	assignmentID := strings.TrimSpace(cmd.AssignmentID)
	if err := uc.Assignments.LinkDeed(ctx, assignmentID, deedID, uc.Clock.Now().UTC()); err != nil {
		return err
	}

	logger.Info("deed linked to assignment",
		"event", "assignment_deed_linked",
		"module", "agreements-core/fulfillment-service",
		"layer", "application",
		"assignment_id", assignmentID,
		"deed_id", deedID,
	)
	return nil
}
