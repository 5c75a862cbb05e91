package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	fulfillmentservice "covenant/contexts/agreements-core/fulfillment-service"
	"covenant/contexts/agreements-core/fulfillment-service/application/commands"
	"covenant/contexts/agreements-core/fulfillment-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	fulfillmenthttp "covenant/contexts/agreements-core/fulfillment-service/transport/http"
)

// stubDeedSigners answers backer-signer checks from a static map of
// deedID -> backer user IDs.
type stubDeedSigners struct {
	backers map[string][]string
}

func (s stubDeedSigners) IsBackerSigner(_ context.Context, deedID, userID string) (bool, error) {
	for _, backer := range s.backers[deedID] {
		if backer == userID {
			return true, nil
		}
	}
	return false, nil
}

func activeAssignment(deedID string) entities.Assignment {
	now := time.Now().UTC()
	return entities.Assignment{
		AssignmentID:   "assignment-1",
		NeedCampaignID: "need-1",
		FeedCampaignID: "feed-1",
		OfferID:        "offer-1",
		SupplierID:     "supplier-b",
		OwnerID:        "owner-1",
		DeedID:         deedID,
		Status:         entities.AssignmentStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func fulfillmentModule(deedID string) fulfillmentservice.Module {
	module := fulfillmentservice.NewInMemoryModule(stubDeedSigners{backers: map[string][]string{
		"deed-1": {"owner-1"},
	}}, nil, nil, nil)
	module.Store.PutAssignment(activeAssignment(deedID))
	return module
}

func createPendingMilestone(t *testing.T, module fulfillmentservice.Module, title string) string {
	t.Helper()
	created, err := module.Handler.CreateMilestoneHandler(context.Background(), "owner-1", "assignment-1", fulfillmenthttp.CreateMilestoneRequest{
		Title: title,
	})
	if err != nil {
		t.Fatalf("create milestone failed: %v", err)
	}
	return created.Milestone.MilestoneID
}

func deliverMilestone(t *testing.T, module fulfillmentservice.Module, milestoneID string) {
	t.Helper()
	_, err := module.Handler.UpdateMilestoneHandler(context.Background(), "supplier-b", milestoneID, fulfillmenthttp.UpdateMilestoneRequest{
		Status:   "delivered",
		ProofURL: "https://proof.example/receipt.pdf",
	})
	if err != nil {
		t.Fatalf("deliver milestone failed: %v", err)
	}
}

func TestMilestoneUpdateIsSupplierOnly(t *testing.T) {
	module := fulfillmentModule("deed-1")
	milestoneID := createPendingMilestone(t, module, "First pallet")

	_, err := module.Handler.UpdateMilestoneHandler(context.Background(), "owner-1", milestoneID, fulfillmenthttp.UpdateMilestoneRequest{
		Status: "in_progress",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for owner update, got %v", err)
	}

	updated, err := module.Handler.UpdateMilestoneHandler(context.Background(), "supplier-b", milestoneID, fulfillmenthttp.UpdateMilestoneRequest{
		Status: "in_progress",
		Notes:  "loading the truck",
	})
	if err != nil {
		t.Fatalf("supplier update failed: %v", err)
	}
	if updated.Milestone.Status != "in_progress" {
		t.Fatalf("expected in_progress, got %s", updated.Milestone.Status)
	}
}

func TestSupplierCannotSelfAccept(t *testing.T) {
	module := fulfillmentModule("deed-1")
	milestoneID := createPendingMilestone(t, module, "First pallet")

	_, err := module.Handler.UpdateMilestoneHandler(context.Background(), "supplier-b", milestoneID, fulfillmenthttp.UpdateMilestoneRequest{
		Status: "accepted",
	})
	if !errors.Is(err, domainerrors.ErrInvalidMilestoneInput) {
		t.Fatalf("expected invalid input for supplier acceptance, got %v", err)
	}
}

func TestConfirmRequiresDeliveredMilestone(t *testing.T) {
	module := fulfillmentModule("deed-1")
	milestoneID := createPendingMilestone(t, module, "First pallet")

	_, err := module.Handler.ConfirmMilestoneHandler(context.Background(), "owner-1", milestoneID)
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state confirming a pending milestone, got %v", err)
	}
}

func TestConfirmRequiresAttachedDeed(t *testing.T) {
	module := fulfillmentModule("")
	milestoneID := createPendingMilestone(t, module, "First pallet")
	deliverMilestone(t, module, milestoneID)

	_, err := module.Handler.ConfirmMilestoneHandler(context.Background(), "owner-1", milestoneID)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden without an attached deed, got %v", err)
	}
}

func TestConfirmRequiresBackerSigner(t *testing.T) {
	module := fulfillmentModule("deed-1")
	milestoneID := createPendingMilestone(t, module, "First pallet")
	deliverMilestone(t, module, milestoneID)

	_, err := module.Handler.ConfirmMilestoneHandler(context.Background(), "stranger-1", milestoneID)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for a non-signer, got %v", err)
	}
}

func TestAllMilestonesAcceptedFulfillsAssignment(t *testing.T) {
	module := fulfillmentModule("deed-1")
	first := createPendingMilestone(t, module, "First pallet")
	second := createPendingMilestone(t, module, "Second pallet")

	deliverMilestone(t, module, first)
	deliverMilestone(t, module, second)

	partial, err := module.Handler.ConfirmMilestoneHandler(context.Background(), "owner-1", first)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if partial.AssignmentFulfilled {
		t.Fatalf("assignment should not be fulfilled with one milestone outstanding")
	}

	final, err := module.Handler.ConfirmMilestoneHandler(context.Background(), "owner-1", second)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if !final.AssignmentFulfilled || final.AssignmentStatus != "fulfilled" {
		t.Fatalf("expected fulfilled assignment, got fulfilled=%v status=%s", final.AssignmentFulfilled, final.AssignmentStatus)
	}

	view, err := module.Handler.GetAssignmentHandler(context.Background(), "owner-1", "assignment-1")
	if err != nil {
		t.Fatalf("get assignment failed: %v", err)
	}
	if view.Assignment.Status != "fulfilled" || view.Assignment.FulfilledAt == "" {
		t.Fatalf("expected fulfilled assignment with timestamp, got %+v", view.Assignment)
	}
}

func TestFlagDisputedIsIdempotent(t *testing.T) {
	module := fulfillmentModule("deed-1")
	milestoneID := createPendingMilestone(t, module, "First pallet")

	flagged, err := module.FlagDisputed.Execute(context.Background(), commands.FlagDisputedCommand{
		AssignmentID: "assignment-1",
		MilestoneID:  milestoneID,
		ActorID:      "owner-1",
		Reason:       "pallet arrived damaged",
	})
	if err != nil {
		t.Fatalf("flag disputed failed: %v", err)
	}
	if flagged.Status != entities.AssignmentStatusDisputed {
		t.Fatalf("expected disputed assignment, got %s", flagged.Status)
	}

	again, err := module.FlagDisputed.Execute(context.Background(), commands.FlagDisputedCommand{
		AssignmentID: "assignment-1",
		MilestoneID:  milestoneID,
		ActorID:      "owner-1",
		Reason:       "pallet arrived damaged",
	})
	if err != nil {
		t.Fatalf("second flag should be a no-op, got %v", err)
	}
	if again.Status != entities.AssignmentStatusDisputed {
		t.Fatalf("expected disputed assignment on replay, got %s", again.Status)
	}

	_, err = module.Handler.UpdateMilestoneHandler(context.Background(), "supplier-b", milestoneID, fulfillmenthttp.UpdateMilestoneRequest{
		Status: "in_progress",
	})
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected frozen milestone on disputed assignment, got %v", err)
	}
}
