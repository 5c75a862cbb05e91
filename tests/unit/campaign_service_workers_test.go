package unit

import (
	"context"
	"testing"
	"time"
)

func TestDeadlineSeederSeedsMetCampaigns(t *testing.T) {
	module := moderatedCampaignModule()
	campaignID := bringNeedCampaignLive(t, module, "owner-1", pastDeadline())

	pledgeOnCampaign(t, module, campaignID, 120)

	if err := module.DeadlineSeeder.RunOnce(context.Background()); err != nil {
		t.Fatalf("deadline sweep failed: %v", err)
	}

	need, err := module.Handler.GetCampaignHandler(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if need.Campaign.Status != "seeded" {
		t.Fatalf("expected seeded campaign after sweep, got %s", need.Campaign.Status)
	}

	feeds, err := module.Handler.ListCampaignsHandler(context.Background(), "owner-1", "feed", "")
	if err != nil {
		t.Fatalf("list feed campaigns failed: %v", err)
	}
	if len(feeds.Items) != 1 {
		t.Fatalf("expected one spawned feed campaign, got %d", len(feeds.Items))
	}
	if feeds.Items[0].SourceNeedCampaignID != campaignID {
		t.Fatalf("expected feed campaign sourced from %s, got %s", campaignID, feeds.Items[0].SourceNeedCampaignID)
	}
	if feeds.Items[0].Status != "draft" {
		t.Fatalf("expected spawned feed campaign in draft, got %s", feeds.Items[0].Status)
	}
}

func TestDeadlineSeederClosesUnmetCampaigns(t *testing.T) {
	module := moderatedCampaignModule()
	campaignID := bringNeedCampaignLive(t, module, "owner-1", pastDeadline())

	pledgeOnCampaign(t, module, campaignID, 30)

	if err := module.DeadlineSeeder.RunOnce(context.Background()); err != nil {
		t.Fatalf("deadline sweep failed: %v", err)
	}

	need, err := module.Handler.GetCampaignHandler(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if need.Campaign.Status != "closed_unseeded" {
		t.Fatalf("expected closed_unseeded after sweep, got %s", need.Campaign.Status)
	}

	feeds, err := module.Handler.ListCampaignsHandler(context.Background(), "owner-1", "feed", "")
	if err != nil {
		t.Fatalf("list feed campaigns failed: %v", err)
	}
	if len(feeds.Items) != 0 {
		t.Fatalf("expected no feed campaigns for an unmet sweep, got %d", len(feeds.Items))
	}
}

func TestDeadlineSeederIgnoresFutureDeadlines(t *testing.T) {
	module := moderatedCampaignModule()
	campaignID := bringNeedCampaignLive(t, module, "owner-1", time.Now().UTC().Add(time.Hour))

	pledgeOnCampaign(t, module, campaignID, 120)

	if err := module.DeadlineSeeder.RunOnce(context.Background()); err != nil {
		t.Fatalf("deadline sweep failed: %v", err)
	}

	need, err := module.Handler.GetCampaignHandler(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if need.Campaign.Status != "live" {
		t.Fatalf("expected live campaign to be untouched, got %s", need.Campaign.Status)
	}
}
