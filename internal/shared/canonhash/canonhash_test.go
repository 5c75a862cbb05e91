package canonhash

import "testing"

func TestSumDeterministicForSameState(t *testing.T) {
	a := map[string]any{
		"terms": "net-30",
		"rows":  map[string]any{"widget": 40, "gadget": 70},
	}
	b := map[string]any{
		"rows":  map[string]any{"gadget": 70, "widget": 40},
		"terms": "net-30",
	}

	ha, _, err := Sum(a)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	hb, _, err := Sum(b)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ha != hb {
		t.Fatalf("expected same hash, got %s vs %s", ha, hb)
	}
}

func TestSumChangesWhenStateChanges(t *testing.T) {
	ha, _, _ := Sum(map[string]any{"qty": 100})
	hb, _, _ := Sum(map[string]any{"qty": 110})
	if ha == hb {
		t.Fatalf("expected different hashes")
	}
}
