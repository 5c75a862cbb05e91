package unit

import (
	"context"
	"errors"
	"testing"

	disputeservice "covenant/contexts/moderation-safety/dispute-service"
	domainerrors "covenant/contexts/moderation-safety/dispute-service/domain/errors"
	disputehttp "covenant/contexts/moderation-safety/dispute-service/transport/http"
)

// stubAssignments records dispute flags pushed to the fulfillment side.
type stubAssignments struct {
	flags []string
}

func (s *stubAssignments) FlagDisputed(_ context.Context, assignmentID, milestoneID, actorID, reason string) error {
	s.flags = append(s.flags, assignmentID+"/"+milestoneID)
	return nil
}

func disputeModule(assignments *stubAssignments) disputeservice.Module {
	return disputeservice.NewInMemoryModule(nil, stubRoles{roles: map[string][]string{
		"admin-1": {"admin"},
		"mod-1":   {"moderator"},
	}}, assignments, nil, nil)
}

func openAssignmentDispute(t *testing.T, module disputeservice.Module, openerID string) string {
	t.Helper()
	opened, err := module.Handler.OpenDisputeHandler(context.Background(), openerID, disputehttp.OpenDisputeRequest{
		ContextType: "assignment",
		ContextID:   "assignment-1",
		Reason:      "pallet arrived damaged",
		MilestoneID: "milestone-1",
	})
	if err != nil {
		t.Fatalf("open dispute failed: %v", err)
	}
	if opened.Dispute.Status != "open" {
		t.Fatalf("expected open dispute, got %s", opened.Dispute.Status)
	}
	return opened.Dispute.DisputeID
}

func TestOpenDisputeFlagsAssignment(t *testing.T) {
	assignments := &stubAssignments{}
	module := disputeModule(assignments)

	openAssignmentDispute(t, module, "owner-1")

	if len(assignments.flags) != 1 || assignments.flags[0] != "assignment-1/milestone-1" {
		t.Fatalf("expected assignment flag handoff, got %v", assignments.flags)
	}
}

func TestOpenDisputeRejectsUnknownContext(t *testing.T) {
	module := disputeModule(&stubAssignments{})

	_, err := module.Handler.OpenDisputeHandler(context.Background(), "owner-1", disputehttp.OpenDisputeRequest{
		ContextType: "invoice",
		ContextID:   "invoice-1",
		Reason:      "wrong amount",
	})
	if !errors.Is(err, domainerrors.ErrInvalidDisputeInput) {
		t.Fatalf("expected invalid dispute input, got %v", err)
	}
}

func TestGetDisputeAccessControl(t *testing.T) {
	module := disputeModule(&stubAssignments{})
	disputeID := openAssignmentDispute(t, module, "owner-1")

	if _, err := module.Handler.GetDisputeHandler(context.Background(), "owner-1", disputeID); err != nil {
		t.Fatalf("opener read failed: %v", err)
	}
	if _, err := module.Handler.GetDisputeHandler(context.Background(), "admin-1", disputeID); err != nil {
		t.Fatalf("admin read failed: %v", err)
	}
	_, err := module.Handler.GetDisputeHandler(context.Background(), "stranger-1", disputeID)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
}

func TestResolveDisputeRequiresKeyAndRole(t *testing.T) {
	module := disputeModule(&stubAssignments{})
	disputeID := openAssignmentDispute(t, module, "owner-1")

	_, err := module.Handler.ResolveDisputeHandler(context.Background(), "", "admin-1", disputeID, disputehttp.ResolveDisputeRequest{Action: "resolve"})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected missing idempotency key error, got %v", err)
	}

	_, err = module.Handler.ResolveDisputeHandler(context.Background(), "key-1", "owner-1", disputeID, disputehttp.ResolveDisputeRequest{Action: "resolve"})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-staff, got %v", err)
	}
}

func TestResolveDisputeLifecycle(t *testing.T) {
	module := disputeModule(&stubAssignments{})
	disputeID := openAssignmentDispute(t, module, "owner-1")

	reviewed, err := module.Handler.ResolveDisputeHandler(context.Background(), "key-review", "mod-1", disputeID, disputehttp.ResolveDisputeRequest{Action: "in_review"})
	if err != nil {
		t.Fatalf("move to review failed: %v", err)
	}
	if reviewed.Dispute.Status != "in_review" {
		t.Fatalf("expected in_review, got %s", reviewed.Dispute.Status)
	}

	resolved, err := module.Handler.ResolveDisputeHandler(context.Background(), "key-resolve", "mod-1", disputeID, disputehttp.ResolveDisputeRequest{
		Action: "resolve",
		Notes:  "replacement pallet shipped",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Dispute.Status != "resolved" || resolved.Dispute.ResolverID != "mod-1" {
		t.Fatalf("unexpected resolution %+v", resolved.Dispute)
	}
	if resolved.Dispute.ResolvedAt == "" || resolved.Dispute.ResolutionNotes != "replacement pallet shipped" {
		t.Fatalf("expected resolution metadata, got %+v", resolved.Dispute)
	}

	_, err = module.Handler.ResolveDisputeHandler(context.Background(), "key-again", "mod-1", disputeID, disputehttp.ResolveDisputeRequest{Action: "close"})
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state on terminal dispute, got %v", err)
	}
}

func TestResolveRequiresReviewFirst(t *testing.T) {
	module := disputeModule(&stubAssignments{})
	disputeID := openAssignmentDispute(t, module, "owner-1")

	_, err := module.Handler.ResolveDisputeHandler(context.Background(), "key-skip", "admin-1", disputeID, disputehttp.ResolveDisputeRequest{
		Action: "resolve",
		Notes:  "skipping review",
	})
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state resolving an open dispute, got %v", err)
	}

	_, err = module.Handler.ResolveDisputeHandler(context.Background(), "key-skip-close", "admin-1", disputeID, disputehttp.ResolveDisputeRequest{
		Action: "close",
	})
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state closing an open dispute, got %v", err)
	}
}

func TestResolveDisputeIdempotency(t *testing.T) {
	module := disputeModule(&stubAssignments{})
	disputeID := openAssignmentDispute(t, module, "owner-1")

	if _, err := module.Handler.ResolveDisputeHandler(context.Background(), "key-0", "admin-1", disputeID, disputehttp.ResolveDisputeRequest{Action: "in_review"}); err != nil {
		t.Fatalf("move to review failed: %v", err)
	}

	first, err := module.Handler.ResolveDisputeHandler(context.Background(), "key-1", "admin-1", disputeID, disputehttp.ResolveDisputeRequest{
		Action: "resolve",
		Notes:  "refund issued",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	replay, err := module.Handler.ResolveDisputeHandler(context.Background(), "key-1", "admin-1", disputeID, disputehttp.ResolveDisputeRequest{
		Action: "resolve",
		Notes:  "refund issued",
	})
	if err != nil {
		t.Fatalf("replay with same key failed: %v", err)
	}
	if replay.Dispute.Status != first.Dispute.Status || replay.Dispute.ResolvedAt != first.Dispute.ResolvedAt {
		t.Fatalf("replay diverged: %+v vs %+v", replay.Dispute, first.Dispute)
	}

	_, err = module.Handler.ResolveDisputeHandler(context.Background(), "key-1", "admin-1", disputeID, disputehttp.ResolveDisputeRequest{
		Action: "close",
		Notes:  "different payload",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict on reused key, got %v", err)
	}
}
