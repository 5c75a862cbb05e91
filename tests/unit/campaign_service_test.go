package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	campaignservice "covenant/contexts/campaign-lifecycle/campaign-service"
	domainerrors "covenant/contexts/campaign-lifecycle/campaign-service/domain/errors"
	httptransport "covenant/contexts/campaign-lifecycle/campaign-service/transport/http"
)

func needCampaignRequest(deadline time.Time) httptransport.CreateCampaignRequest {
	return httptransport.CreateCampaignRequest{
		Kind:        "need",
		Title:       "Bulk rice for the co-op",
		Description: "Aggregate orders for a wholesale rice purchase",
		Visibility:  "public",
		Threshold: &httptransport.ThresholdRequest{
			Type:     "quantity",
			Target:   100,
			Deadline: deadline.Format(time.RFC3339),
			Deposit:  httptransport.DepositTermsDTO{Percent: 20, DueDays: 7},
			Payment:  httptransport.PaymentTermsDTO{Method: "invoice", NetDays: 30},
			Delivery: httptransport.DeliveryTermsDTO{Mode: "pickup", WindowDays: 14},
			Cancellation: httptransport.CancelTermsDTO{
				WindowDays: 3,
				FeePercent: 5,
			},
		},
	}
}

func bringNeedCampaignLive(t *testing.T, module campaignservice.Module, ownerID string, deadline time.Time) string {
	t.Helper()

	created, err := module.Handler.CreateCampaignHandler(context.Background(), ownerID, needCampaignRequest(deadline))
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	campaignID := created.Campaign.CampaignID

	if _, err := module.Handler.SubmitCampaignHandler(context.Background(), ownerID, campaignID, "ready"); err != nil {
		t.Fatalf("submit campaign failed: %v", err)
	}
	approved, err := module.Handler.ModerateCampaignHandler(context.Background(), "mod-1", campaignID, httptransport.ModerateCampaignRequest{
		Action: "approve",
		Reason: "looks good",
	})
	if err != nil {
		t.Fatalf("approve campaign failed: %v", err)
	}
	if approved.Campaign.Status != "live" {
		t.Fatalf("expected live campaign, got %s", approved.Campaign.Status)
	}
	return campaignID
}

func moderatedCampaignModule() campaignservice.Module {
	return campaignservice.NewInMemoryModule(nil, stubRoles{roles: map[string][]string{
		"mod-1":   {"moderator"},
		"admin-1": {"admin"},
	}}, nil, nil, nil)
}

func TestNeedCampaignLifecycleToLive(t *testing.T) {
	module := moderatedCampaignModule()

	created, err := module.Handler.CreateCampaignHandler(context.Background(), "owner-1", needCampaignRequest(futureDeadline()))
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if created.Campaign.Status != "draft" {
		t.Fatalf("expected draft, got %s", created.Campaign.Status)
	}

	submitted, err := module.Handler.SubmitCampaignHandler(context.Background(), "owner-1", created.Campaign.CampaignID, "ready")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if submitted.Campaign.Status != "review" {
		t.Fatalf("expected review, got %s", submitted.Campaign.Status)
	}

	_, err = module.Handler.SubmitCampaignHandler(context.Background(), "owner-1", created.Campaign.CampaignID, "again")
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid state transition on double submit, got %v", err)
	}
}

func TestSubmitRequiresOwner(t *testing.T) {
	module := moderatedCampaignModule()

	created, err := module.Handler.CreateCampaignHandler(context.Background(), "owner-1", needCampaignRequest(futureDeadline()))
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}

	_, err = module.Handler.SubmitCampaignHandler(context.Background(), "someone-else", created.Campaign.CampaignID, "ready")
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestModerationRequiresRole(t *testing.T) {
	module := moderatedCampaignModule()

	created, err := module.Handler.CreateCampaignHandler(context.Background(), "owner-1", needCampaignRequest(futureDeadline()))
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if _, err := module.Handler.SubmitCampaignHandler(context.Background(), "owner-1", created.Campaign.CampaignID, "ready"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err = module.Handler.ModerateCampaignHandler(context.Background(), "owner-1", created.Campaign.CampaignID, httptransport.ModerateCampaignRequest{
		Action: "approve",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-moderator, got %v", err)
	}
}

func TestPledgeRejectedWhenNotLive(t *testing.T) {
	module := moderatedCampaignModule()

	created, err := module.Handler.CreateCampaignHandler(context.Background(), "owner-1", needCampaignRequest(futureDeadline()))
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}

	_, err = module.Handler.SubmitPledgeHandler(context.Background(), "backer-1", created.Campaign.CampaignID, httptransport.SubmitPledgeRequest{
		Rows: []httptransport.PledgeRowRequest{{ItemRef: "rice-25kg", Quantity: 10, UnitPrice: 30}},
	})
	if !errors.Is(err, domainerrors.ErrCampaignNotLive) {
		t.Fatalf("expected campaign not live, got %v", err)
	}
}

func TestThresholdQuantityEvaluation(t *testing.T) {
	module := moderatedCampaignModule()
	campaignID := bringNeedCampaignLive(t, module, "owner-1", futureDeadline())

	status, err := module.Handler.ThresholdStatusHandler(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("threshold status failed: %v", err)
	}
	if status.Met || status.Current != 0 {
		t.Fatalf("expected unmet zero threshold, got current=%v met=%v", status.Current, status.Met)
	}

	for _, quantity := range []int64{40, 70} {
		_, err := module.Handler.SubmitPledgeHandler(context.Background(), "backer-1", campaignID, httptransport.SubmitPledgeRequest{
			Rows: []httptransport.PledgeRowRequest{{ItemRef: "rice-25kg", Quantity: quantity, UnitPrice: 30}},
		})
		if err != nil {
			t.Fatalf("pledge failed: %v", err)
		}
	}

	status, err = module.Handler.ThresholdStatusHandler(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("threshold status failed: %v", err)
	}
	if status.Current != 110 {
		t.Fatalf("expected current 110, got %v", status.Current)
	}
	if !status.Met {
		t.Fatalf("expected threshold met at 110 of 100")
	}
}

func TestManualSeedRequiresRoleAndReason(t *testing.T) {
	module := moderatedCampaignModule()
	campaignID := bringNeedCampaignLive(t, module, "owner-1", futureDeadline())

	_, err := module.Handler.TransitionCampaignHandler(context.Background(), "owner-1", campaignID, httptransport.TransitionCampaignRequest{
		Action: "seed",
		Reason: "owner wants to skip the queue",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-moderator seed, got %v", err)
	}

	_, err = module.Handler.TransitionCampaignHandler(context.Background(), "admin-1", campaignID, httptransport.TransitionCampaignRequest{
		Action: "seed",
	})
	if !errors.Is(err, domainerrors.ErrReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}

	seeded, err := module.Handler.TransitionCampaignHandler(context.Background(), "admin-1", campaignID, httptransport.TransitionCampaignRequest{
		Action: "seed",
		Reason: "supplier lined up offline",
	})
	if err != nil {
		t.Fatalf("manual seed failed: %v", err)
	}
	if seeded.Need.Status != "seeded" {
		t.Fatalf("expected seeded need campaign, got %s", seeded.Need.Status)
	}
	if seeded.Feed.Kind != "feed" || seeded.Feed.Status != "draft" {
		t.Fatalf("expected draft feed campaign, got kind=%s status=%s", seeded.Feed.Kind, seeded.Feed.Status)
	}
	if seeded.Feed.SourceNeedCampaignID != campaignID {
		t.Fatalf("expected feed campaign to link back to %s, got %s", campaignID, seeded.Feed.SourceNeedCampaignID)
	}

	_, err = module.Handler.TransitionCampaignHandler(context.Background(), "admin-1", campaignID, httptransport.TransitionCampaignRequest{
		Action: "seed",
		Reason: "twice",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition on second seed, got %v", err)
	}
}

func TestFeedCampaignPublish(t *testing.T) {
	module := moderatedCampaignModule()
	campaignID := bringNeedCampaignLive(t, module, "owner-1", futureDeadline())

	seeded, err := module.Handler.TransitionCampaignHandler(context.Background(), "admin-1", campaignID, httptransport.TransitionCampaignRequest{
		Action: "seed",
		Reason: "manual seed",
	})
	if err != nil {
		t.Fatalf("manual seed failed: %v", err)
	}

	published, err := module.Handler.PublishCampaignHandler(context.Background(), "owner-1", seeded.Feed.CampaignID, "open for offers")
	if err != nil {
		t.Fatalf("publish feed campaign failed: %v", err)
	}
	if published.Campaign.Status != "open" {
		t.Fatalf("expected open feed campaign, got %s", published.Campaign.Status)
	}

	_, err = module.Handler.PublishCampaignHandler(context.Background(), "owner-1", campaignID, "wrong kind")
	if !errors.Is(err, domainerrors.ErrNotFeedCampaign) {
		t.Fatalf("expected not-feed-campaign error, got %v", err)
	}
}
