package unit

import (
	"context"
	"errors"
	"testing"

	deedservice "covenant/contexts/agreements-core/deed-service"
	"covenant/contexts/agreements-core/deed-service/application/commands"
	"covenant/contexts/agreements-core/deed-service/domain/entities"
	domainerrors "covenant/contexts/agreements-core/deed-service/domain/errors"
	"covenant/contexts/agreements-core/deed-service/ports"
	deedhttp "covenant/contexts/agreements-core/deed-service/transport/http"
)

func sampleDeedRequest() deedhttp.CreateDeedRequest {
	return deedhttp.CreateDeedRequest{
		Kind:        "feed_deed",
		ContextType: "assignment",
		ContextID:   "assignment-1",
		Document: deedhttp.DeedDocumentDTO{
			Title:     "Supply deed for campaign feed-1",
			ContextID: "feed-1",
			Terms:     map[string]any{"delivery_days": 10, "notes": "two pallets"},
			Rows: []deedhttp.DocumentRowDTO{
				{ItemRef: "rice-25kg", Quantity: 100, UnitPrice: 28},
			},
			DraftedAt: "2026-08-01T12:00:00Z",
		},
		Signers: []deedhttp.SignerRequest{
			{UserID: "owner-1", Kind: "backer"},
			{UserID: "supplier-b", Kind: "supplier"},
		},
	}
}

func createOpenDeed(t *testing.T, module deedservice.Module) string {
	t.Helper()

	created, err := module.Handler.CreateDeedHandler(context.Background(), "owner-1", sampleDeedRequest())
	if err != nil {
		t.Fatalf("create deed failed: %v", err)
	}
	opened, err := module.Handler.OpenForSignatureHandler(context.Background(), "owner-1", created.Deed.DeedID)
	if err != nil {
		t.Fatalf("open for signature failed: %v", err)
	}
	if opened.Deed.Status != "open_for_signature" {
		t.Fatalf("expected open_for_signature, got %s", opened.Deed.Status)
	}
	return created.Deed.DeedID
}

func TestDeedContentHashIsDeterministic(t *testing.T) {
	module := deedservice.NewInMemoryModule(nil, nil, nil, nil)

	first, err := module.Handler.CreateDeedHandler(context.Background(), "owner-1", sampleDeedRequest())
	if err != nil {
		t.Fatalf("create deed failed: %v", err)
	}
	second, err := module.Handler.CreateDeedHandler(context.Background(), "owner-1", sampleDeedRequest())
	if err != nil {
		t.Fatalf("create deed failed: %v", err)
	}

	if first.Deed.ContentHash == "" {
		t.Fatalf("expected a content hash on the draft")
	}
	if first.Deed.ContentHash != second.Deed.ContentHash {
		t.Fatalf("same document produced different hashes: %s vs %s", first.Deed.ContentHash, second.Deed.ContentHash)
	}
}

func TestDeedSigningFlow(t *testing.T) {
	module := deedservice.NewInMemoryModule(nil, nil, nil, nil)
	deedID := createOpenDeed(t, module)

	partial, err := module.Handler.SignDeedHandler(context.Background(), "owner-1", deedID)
	if err != nil {
		t.Fatalf("backer sign failed: %v", err)
	}
	if partial.Deed.Status != "open_for_signature" {
		t.Fatalf("expected deed to stay open after first signature, got %s", partial.Deed.Status)
	}

	signed, err := module.Handler.SignDeedHandler(context.Background(), "supplier-b", deedID)
	if err != nil {
		t.Fatalf("supplier sign failed: %v", err)
	}
	if signed.Deed.Status != "signed" {
		t.Fatalf("expected signed deed, got %s", signed.Deed.Status)
	}
	if signed.Deed.SignedAt == "" {
		t.Fatalf("expected signed_at to be set")
	}

	_, err = module.Handler.SignDeedHandler(context.Background(), "owner-1", deedID)
	if !errors.Is(err, domainerrors.ErrAlreadySigned) {
		t.Fatalf("expected already-signed error, got %v", err)
	}
	_, err = module.Handler.SignDeedHandler(context.Background(), "stranger-1", deedID)
	if !errors.Is(err, domainerrors.ErrNotASigner) {
		t.Fatalf("expected not-a-signer error, got %v", err)
	}
}

func TestAmendRequiresImmutableDeed(t *testing.T) {
	module := deedservice.NewInMemoryModule(nil, nil, nil, nil)

	created, err := module.Handler.CreateDeedHandler(context.Background(), "owner-1", sampleDeedRequest())
	if err != nil {
		t.Fatalf("create deed failed: %v", err)
	}

	_, err = module.Handler.AmendDeedHandler(context.Background(), "owner-1", created.Deed.DeedID, deedhttp.AmendDeedRequest{
		Document: sampleDeedRequest().Document,
	})
	if !errors.Is(err, domainerrors.ErrDeedNotImmutable) {
		t.Fatalf("expected not-immutable error on draft amend, got %v", err)
	}
}

func TestAmendCreatesNextVersion(t *testing.T) {
	module := deedservice.NewInMemoryModule(nil, nil, nil, nil)
	deedID := createOpenDeed(t, module)

	if _, err := module.Handler.SignDeedHandler(context.Background(), "owner-1", deedID); err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := module.Handler.SignDeedHandler(context.Background(), "supplier-b", deedID); err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	amendedDoc := sampleDeedRequest().Document
	amendedDoc.Terms = map[string]any{"delivery_days": 14, "notes": "revised window"}

	amended, err := module.Handler.AmendDeedHandler(context.Background(), "owner-1", deedID, deedhttp.AmendDeedRequest{Document: amendedDoc})
	if err != nil {
		t.Fatalf("amend failed: %v", err)
	}
	if amended.Deed.Status != "draft" || amended.Deed.Version != 2 {
		t.Fatalf("expected draft v2, got status=%s version=%d", amended.Deed.Status, amended.Deed.Version)
	}
	if amended.Deed.PrevDeedID != deedID {
		t.Fatalf("expected successor to point at %s, got %s", deedID, amended.Deed.PrevDeedID)
	}
	for _, signer := range amended.Deed.Signers {
		if signer.Status != "pending" {
			t.Fatalf("expected signer slots reset to pending, got %s", signer.Status)
		}
	}

	prior, err := module.Handler.GetDeedHandler(context.Background(), deedID)
	if err != nil {
		t.Fatalf("get prior version failed: %v", err)
	}
	if prior.Deed.Status != "signed" || prior.Deed.Version != 1 {
		t.Fatalf("expected prior version untouched, got status=%s version=%d", prior.Deed.Status, prior.Deed.Version)
	}

	_, err = module.Handler.AmendDeedHandler(context.Background(), "owner-1", deedID, deedhttp.AmendDeedRequest{Document: amendedDoc})
	if !errors.Is(err, domainerrors.ErrAmendConflict) {
		t.Fatalf("expected amend conflict on second amend of same version, got %v", err)
	}

	for _, start := range []string{deedID, amended.Deed.DeedID} {
		history, err := module.Handler.VersionHistoryHandler(context.Background(), start)
		if err != nil {
			t.Fatalf("version history from %s failed: %v", start, err)
		}
		if len(history.Items) != 2 {
			t.Fatalf("expected two versions from %s, got %d", start, len(history.Items))
		}
		if history.Items[0].Version != 1 || history.Items[1].Version != 2 {
			t.Fatalf("expected ascending versions from %s, got %d then %d", start, history.Items[0].Version, history.Items[1].Version)
		}
		if history.Items[1].PrevDeedID != deedID {
			t.Fatalf("expected v2 to link back to %s, got %s", deedID, history.Items[1].PrevDeedID)
		}
	}
}

// staleSnapshotDeeds serves every read from one fixed snapshot while
// delegating writes, so both signers act on a view in which the other
// slot is still pending.
type staleSnapshotDeeds struct {
	ports.DeedRepository
	snapshot entities.Deed
}

func (s staleSnapshotDeeds) GetDeed(_ context.Context, _ string) (entities.Deed, error) {
	return s.snapshot, nil
}

func TestConcurrentSignersStillCompleteDeed(t *testing.T) {
	module := deedservice.NewInMemoryModule(nil, nil, nil, nil)
	deedID := createOpenDeed(t, module)

	snapshot, err := module.Store.GetDeed(context.Background(), deedID)
	if err != nil {
		t.Fatalf("get deed failed: %v", err)
	}
	sign := commands.SignDeedUseCase{
		Deeds: staleSnapshotDeeds{DeedRepository: module.Store, snapshot: snapshot},
		Clock: module.Store,
		IDGen: module.Store,
	}

	for _, signer := range []string{"owner-1", "supplier-b"} {
		if _, err := sign.Execute(context.Background(), commands.SignDeedCommand{DeedID: deedID, ActorID: signer}); err != nil {
			t.Fatalf("sign by %s failed: %v", signer, err)
		}
	}

	final, err := module.Handler.GetDeedHandler(context.Background(), deedID)
	if err != nil {
		t.Fatalf("get deed failed: %v", err)
	}
	if final.Deed.Status != "signed" {
		t.Fatalf("expected deed signed once every signer kind signed, got %s", final.Deed.Status)
	}
	if final.Deed.SignedAt == "" {
		t.Fatalf("expected signed_at to be stamped with the closing signature")
	}
}

func TestVoidedDeedCannotBeAmended(t *testing.T) {
	module := deedservice.NewInMemoryModule(nil, nil, nil, nil)
	deedID := createOpenDeed(t, module)

	voided, err := module.Handler.VoidDeedHandler(context.Background(), "owner-1", deedID, deedhttp.VoidDeedRequest{Reason: "terms withdrawn"})
	if err != nil {
		t.Fatalf("void failed: %v", err)
	}
	if voided.Deed.Status != "voided" {
		t.Fatalf("expected voided deed, got %s", voided.Deed.Status)
	}

	_, err = module.Handler.AmendDeedHandler(context.Background(), "owner-1", deedID, deedhttp.AmendDeedRequest{
		Document: sampleDeedRequest().Document,
	})
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state amending a voided deed, got %v", err)
	}

	_, err = module.Handler.SignDeedHandler(context.Background(), "owner-1", deedID)
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state signing a voided deed, got %v", err)
	}
}
