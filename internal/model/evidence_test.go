package model

import (
	"testing"
	"time"
)

func ev(kind SourceKind, weight float64, locator string) Evidence {
	return Evidence{
		SourceKind:  kind,
		Weight:      weight,
		Locator:     locator,
		CollectedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvidence_Validate_WeightBounds(t *testing.T) {
	cases := []struct {
		name   string
		weight float64
		valid  bool
	}{
		{"zero", 0, false},
		{"negative", -0.5, false},
		{"above one", 1.01, false},
		{"epsilon", 0.001, true},
		{"one", 1.0, true},
	}

	for _, tc := range cases {
		e := ev(SourceConfigFile, tc.weight, "package.json#L1")
		err := e.Validate()
		if tc.valid && err != nil {
			t.Errorf("%s: expected valid, got %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("%s: expected validation error for weight %v", tc.name, tc.weight)
		}
		if !tc.valid && err != nil && !IsValidationError(err) {
			t.Errorf("%s: expected ValidationError, got %T", tc.name, err)
		}
	}
}

func TestEvidence_Validate_MissingFields(t *testing.T) {
	if err := (Evidence{Weight: 0.5, Locator: "a"}).Validate(); err == nil {
		t.Error("expected error for missing source kind")
	}
	if err := (Evidence{SourceKind: SourceDoc, Weight: 0.5}).Validate(); err == nil {
		t.Error("expected error for missing locator")
	}
}

func TestDedupeEvidence_CollapsesSameKindAndLocator(t *testing.T) {
	// Three items with identical (source_kind, locator) but different
	// snippets collapse to one entry keeping the max weight.
	a := ev(SourceDoc, 0.4, "README.md#L1")
	a.Snippet = "first"
	b := ev(SourceDoc, 0.6, "README.md#L1")
	b.Snippet = "second"
	c := ev(SourceDoc, 0.5, "README.md#L1")
	c.Snippet = "third"

	out := DedupeEvidence([]Evidence{a, b, c})
	if len(out) != 1 {
		t.Fatalf("expected 1 deduped entry, got %d", len(out))
	}
	if out[0].Weight != 0.6 {
		t.Errorf("expected max weight 0.6 kept, got %v", out[0].Weight)
	}
}

func TestDedupeEvidence_DistinctLocatorsSurvive(t *testing.T) {
	out := DedupeEvidence([]Evidence{
		ev(SourceDoc, 0.5, "README.md#L1"),
		ev(SourceDoc, 0.5, "README.md#L2"),
		ev(SourceConfigFile, 1.0, "README.md#L1"),
	})
	if len(out) != 3 {
		t.Errorf("expected 3 distinct entries, got %d", len(out))
	}
}

func TestDedupeEvidence_OrderInvariant(t *testing.T) {
	a := ev(SourceConfigFile, 1.0, "go.mod#L1")
	b := ev(SourceNaming, 0.3, "cmd/")
	c := ev(SourceConfigFile, 0.7, "go.mod#L1")

	first := DedupeEvidence([]Evidence{a, b, c})
	second := DedupeEvidence([]Evidence{c, b, a})

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 entries each, got %d and %d", len(first), len(second))
	}

	var w1, w2 float64
	for _, e := range first {
		w1 += e.Weight
	}
	for _, e := range second {
		w2 += e.Weight
	}
	if w1 != w2 {
		t.Errorf("dedup result depends on ordering: %v vs %v", w1, w2)
	}
}

func TestDedupeEvidence_Empty(t *testing.T) {
	if out := DedupeEvidence(nil); out != nil {
		t.Errorf("expected nil for empty input, got %v", out)
	}
}
