package prediction

import (
	"testing"

	"arbiterflow/evidence"
)

func item(seq, weight int, submitter string) evidence.Item {
	return evidence.Item{
		DisputeID:   1,
		Seq:         seq,
		SubmitterID: submitter,
		Digest:      make([]byte, evidence.DigestSize),
		Weight:      weight,
	}
}

func TestBasic_NoEvidenceDefaultsToPlaintiff(t *testing.T) {
	c := Case{PlaintiffID: "p", DefendantID: "d", Amount: 1000}

	v := Basic(c, nil)

	if !v.PlaintiffWins {
		t.Fatal("expected plaintiff to win by default")
	}
	if v.Confidence != 50 {
		t.Fatalf("expected confidence 50, got %d", v.Confidence)
	}
}

func TestBasic_EvidenceAlwaysTies(t *testing.T) {
	// Attribution reads only the lead item for both sides, so any evidence
	// set produces equal scores: confidence 50 and the defendant takes the
	// strict comparison.
	c := Case{PlaintiffID: "p", DefendantID: "d", Amount: 1000}
	items := []evidence.Item{
		item(1, 7, "p"),
		item(2, 3, "d"),
		item(3, 10, "p"),
	}

	v := Basic(c, items)

	if v.PlaintiffWins {
		t.Fatal("expected tied scores to favor the defendant")
	}
	if v.Confidence != 50 {
		t.Fatalf("expected confidence 50 on a tie, got %d", v.Confidence)
	}
}

func TestBasic_SingleItemStillTies(t *testing.T) {
	c := Case{PlaintiffID: "p", DefendantID: "d", Amount: 500}

	for weight := 1; weight <= 10; weight++ {
		v := Basic(c, []evidence.Item{item(1, weight, "d")})
		if v.PlaintiffWins {
			t.Fatalf("weight %d: expected defendant on tie", weight)
		}
		if v.Confidence != 50 {
			t.Fatalf("weight %d: expected confidence 50, got %d", weight, v.Confidence)
		}
	}
}

func TestBasic_ConfidenceWithinBounds(t *testing.T) {
	c := Case{PlaintiffID: "p", DefendantID: "d", Amount: 42}
	sets := [][]evidence.Item{
		nil,
		{item(1, 1, "p")},
		{item(1, 10, "d"), item(2, 1, "p")},
		{item(2, 4, "p")}, // no lead item recorded
	}

	for i, items := range sets {
		v := Basic(c, items)
		if v.Confidence < 0 || v.Confidence > 100 {
			t.Fatalf("set %d: confidence %d out of range", i, v.Confidence)
		}
	}
}

func TestBasic_MissingLeadItemDefaults(t *testing.T) {
	// A set without seq 1 attributes no weight to either party and falls
	// back to the plaintiff default.
	c := Case{PlaintiffID: "p", DefendantID: "d", Amount: 9}

	v := Basic(c, []evidence.Item{item(2, 8, "p"), item(3, 2, "d")})

	if !v.PlaintiffWins {
		t.Fatal("expected plaintiff default when no weight attributes")
	}
	if v.Confidence != 50 {
		t.Fatalf("expected confidence 50, got %d", v.Confidence)
	}
}
