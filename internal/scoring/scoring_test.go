package scoring

import (
	"math"
	"testing"

	"vink/internal/catalog"
)

func TestEditDistance(t *testing.T) {
	if d := EditDistance("buizerd", "buizerd"); d != 0 {
		t.Fatalf("identical strings: %d", d)
	}
	if d := EditDistance("buizerd", "buiserd"); d != 1 {
		t.Fatalf("single substitution: %d", d)
	}
}

func TestDistanceCutoff(t *testing.T) {
	if DistanceCutoff(1) != 2 || DistanceCutoff(2) != 3 || DistanceCutoff(3) != 4 || DistanceCutoff(5) != 4 {
		t.Fatalf("cutoffs off: %d %d %d %d", DistanceCutoff(1), DistanceCutoff(2), DistanceCutoff(3), DistanceCutoff(5))
	}
}

func TestWithinCutoff(t *testing.T) {
	if !WithinCutoff("buizerd", "buiserd") {
		t.Fatalf("distance 1 should pass the single-token cutoff")
	}
	if WithinCutoff("kip", "buizerd") {
		t.Fatalf("unrelated words must fail the cutoff")
	}
}

func TestTextSimilarity(t *testing.T) {
	if sim := TextSimilarity("buizerd", "buizerd"); sim != 1.0 {
		t.Fatalf("identical similarity = %f", sim)
	}
	want := 1.0 - 1.0/7.0
	if sim := TextSimilarity("buizerd", "buiserd"); math.Abs(sim-want) > 1e-9 {
		t.Fatalf("similarity = %f, want %f", sim, want)
	}
	if sim := TextSimilarity("", ""); sim != 0 {
		t.Fatalf("empty strings should score 0, got %f", sim)
	}
}

func TestPhoneticSimilarityBinary(t *testing.T) {
	if PhoneticSimilarity("vink", "fink") != 1.0 {
		t.Fatalf("phonetic variants should score 1.0")
	}
	if PhoneticSimilarity("vink", "merel") != 0 {
		t.Fatalf("distinct words should score 0")
	}
}

func TestPriorCappedAndAdditive(t *testing.T) {
	ctx := catalog.NewContextBuilder().
		WithSpecies("s1", "Buizerd", "").
		Working("s1").
		Recent("s1").
		Build()
	// recent 0.25 + working 0.25 + allowed 0.15 = 0.65, capped at 0.60.
	if prior := Prior("s1", ctx); prior != priorCap {
		t.Fatalf("prior = %f, want cap %f", prior, priorCap)
	}
	if prior := Prior("s2", ctx); prior != 0 {
		t.Fatalf("unknown species prior = %f", prior)
	}
	allowedOnly := catalog.NewContextBuilder().Allowed("s3").Build()
	if prior := Prior("s3", allowedOnly); prior != priorAllowed {
		t.Fatalf("allowed-only prior = %f", prior)
	}
}

func TestCombinedWeights(t *testing.T) {
	got := Combined(1.0, 1.0, 0.6)
	want := 0.45 + 0.30 + 0.25*0.6
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("combined = %f, want %f", got, want)
	}
}
