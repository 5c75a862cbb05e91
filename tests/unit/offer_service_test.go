package unit

import (
	"context"
	"errors"
	"sort"
	"testing"

	offerservice "covenant/contexts/campaign-lifecycle/offer-service"
	domainerrors "covenant/contexts/campaign-lifecycle/offer-service/domain/errors"
	offerports "covenant/contexts/campaign-lifecycle/offer-service/ports"
	offerhttp "covenant/contexts/campaign-lifecycle/offer-service/transport/http"
)

// stubDeedClient records the selection handoff instead of drafting a deed.
type stubDeedClient struct {
	inputs []offerports.FeedDeedInput
	err    error
}

func (s *stubDeedClient) CreateFeedDeed(_ context.Context, input offerports.FeedDeedInput) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.inputs = append(s.inputs, input)
	return "deed-" + input.OfferID, nil
}

func openFeedCampaign(store interface {
	PutFeedCampaign(view offerports.FeedCampaignView)
}) {
	store.PutFeedCampaign(offerports.FeedCampaignView{
		CampaignID:           "feed-1",
		OwnerID:              "owner-1",
		Status:               "open",
		SourceNeedCampaignID: "need-1",
	})
}

func submitSignedOffer(t *testing.T, module offerservice.Module, supplierID string) string {
	t.Helper()

	submitted, err := module.Handler.SubmitOfferHandler(context.Background(), supplierID, offerhttp.SubmitOfferRequest{
		CampaignID: "feed-1",
		Rows:       []offerhttp.OfferRowRequest{{ItemRef: "rice-25kg", Quantity: 100, UnitPrice: 28}},
		Terms:      offerhttp.OfferTermsDTO{DeliveryDays: 10, Notes: "two pallets"},
	})
	if err != nil {
		t.Fatalf("submit offer failed: %v", err)
	}
	if _, err := module.Handler.SignOfferHandler(context.Background(), supplierID, submitted.Offer.OfferID); err != nil {
		t.Fatalf("sign offer failed: %v", err)
	}
	return submitted.Offer.OfferID
}

func TestSelectOfferPicksSingleWinner(t *testing.T) {
	deeds := &stubDeedClient{}
	module := offerservice.NewInMemoryModule(nil, deeds, nil, nil, nil)
	openFeedCampaign(module.Store)

	offerA := submitSignedOffer(t, module, "supplier-a")
	offerB := submitSignedOffer(t, module, "supplier-b")
	offerC := submitSignedOffer(t, module, "supplier-c")

	result, err := module.Handler.SelectOfferHandler(context.Background(), "owner-1", "feed-1", offerhttp.SelectOfferRequest{OfferID: offerB})
	if err != nil {
		t.Fatalf("select offer failed: %v", err)
	}
	if result.Winner.OfferID != offerB || result.Winner.Status != "selected" {
		t.Fatalf("expected %s selected, got %s in status %s", offerB, result.Winner.OfferID, result.Winner.Status)
	}
	rejected := append([]string(nil), result.RejectedOfferIDs...)
	sort.Strings(rejected)
	want := []string{offerA, offerC}
	sort.Strings(want)
	if len(rejected) != 2 || rejected[0] != want[0] || rejected[1] != want[1] {
		t.Fatalf("expected rejected offers %v, got %v", want, rejected)
	}
	if result.AssignmentID == "" {
		t.Fatalf("expected assignment to be created")
	}

	assignment, ok := module.Store.AssignmentByCampaign("feed-1")
	if !ok {
		t.Fatalf("expected assignment for campaign feed-1")
	}
	if assignment.SupplierID != "supplier-b" || assignment.NeedCampaignID != "need-1" {
		t.Fatalf("unexpected assignment %+v", assignment)
	}

	if len(deeds.inputs) != 1 {
		t.Fatalf("expected one deed handoff, got %d", len(deeds.inputs))
	}
	if deeds.inputs[0].AssignmentID != result.AssignmentID || deeds.inputs[0].SupplierID != "supplier-b" {
		t.Fatalf("unexpected deed input %+v", deeds.inputs[0])
	}

	losing, err := module.Handler.GetOfferHandler(context.Background(), offerA)
	if err != nil {
		t.Fatalf("get offer failed: %v", err)
	}
	if losing.Offer.Status != "rejected" {
		t.Fatalf("expected losing offer rejected, got %s", losing.Offer.Status)
	}
}

func TestSelectOfferRejectsUnsignedWinner(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, &stubDeedClient{}, nil, nil, nil)
	openFeedCampaign(module.Store)

	submitted, err := module.Handler.SubmitOfferHandler(context.Background(), "supplier-a", offerhttp.SubmitOfferRequest{
		CampaignID: "feed-1",
		Rows:       []offerhttp.OfferRowRequest{{ItemRef: "rice-25kg", Quantity: 100, UnitPrice: 28}},
	})
	if err != nil {
		t.Fatalf("submit offer failed: %v", err)
	}

	_, err = module.Handler.SelectOfferHandler(context.Background(), "owner-1", "feed-1", offerhttp.SelectOfferRequest{OfferID: submitted.Offer.OfferID})
	if !errors.Is(err, domainerrors.ErrOfferNotSigned) {
		t.Fatalf("expected unsigned offer rejection, got %v", err)
	}
}

func TestSelectOfferOwnerOnly(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, &stubDeedClient{}, nil, nil, nil)
	openFeedCampaign(module.Store)
	offerID := submitSignedOffer(t, module, "supplier-a")

	_, err := module.Handler.SelectOfferHandler(context.Background(), "supplier-a", "feed-1", offerhttp.SelectOfferRequest{OfferID: offerID})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner selection, got %v", err)
	}
}

func TestSelectOfferOncePerCampaign(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, &stubDeedClient{}, nil, nil, nil)
	openFeedCampaign(module.Store)

	offerA := submitSignedOffer(t, module, "supplier-a")
	offerB := submitSignedOffer(t, module, "supplier-b")

	if _, err := module.Handler.SelectOfferHandler(context.Background(), "owner-1", "feed-1", offerhttp.SelectOfferRequest{OfferID: offerA}); err != nil {
		t.Fatalf("first selection failed: %v", err)
	}
	_, err := module.Handler.SelectOfferHandler(context.Background(), "owner-1", "feed-1", offerhttp.SelectOfferRequest{OfferID: offerB})
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state on second selection, got %v", err)
	}
}

func TestSubmitOfferRequiresOpenCampaign(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, &stubDeedClient{}, nil, nil, nil)
	module.Store.PutFeedCampaign(offerports.FeedCampaignView{
		CampaignID: "feed-draft",
		OwnerID:    "owner-1",
		Status:     "draft",
	})

	_, err := module.Handler.SubmitOfferHandler(context.Background(), "supplier-a", offerhttp.SubmitOfferRequest{
		CampaignID: "feed-draft",
		Rows:       []offerhttp.OfferRowRequest{{ItemRef: "rice-25kg", Quantity: 100, UnitPrice: 28}},
	})
	if !errors.Is(err, domainerrors.ErrCampaignNotOpen) {
		t.Fatalf("expected campaign not open, got %v", err)
	}
}
