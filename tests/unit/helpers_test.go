package unit

import (
	"context"
	"testing"
	"time"

	campaignservice "covenant/contexts/campaign-lifecycle/campaign-service"
	httptransport "covenant/contexts/campaign-lifecycle/campaign-service/transport/http"
)

// stubRoles answers role checks from a static map of userID -> roles.
type stubRoles struct {
	roles map[string][]string
}

func (s stubRoles) HasAnyRole(_ context.Context, userID string, roles ...string) (bool, error) {
	held := s.roles[userID]
	for _, want := range roles {
		for _, have := range held {
			if want == have {
				return true, nil
			}
		}
	}
	return false, nil
}

func pastDeadline() time.Time {
	return time.Now().UTC().Add(-time.Hour)
}

func futureDeadline() time.Time {
	return time.Now().UTC().Add(30 * 24 * time.Hour)
}

func pledgeOnCampaign(t *testing.T, module campaignservice.Module, campaignID string, quantity int64) {
	t.Helper()
	_, err := module.Handler.SubmitPledgeHandler(context.Background(), "backer-1", campaignID, httptransport.SubmitPledgeRequest{
		Rows: []httptransport.PledgeRowRequest{{ItemRef: "rice-25kg", Quantity: quantity, UnitPrice: 30}},
	})
	if err != nil {
		t.Fatalf("pledge failed: %v", err)
	}
}
