package model

import "testing"

func TestNewFinding_DedupesEvidence(t *testing.T) {
	f, err := NewFinding("w1", SectionStack, "primary_language", "Go", TypeLanguage, []Evidence{
		ev(SourceConfigFile, 1.0, "go.mod#L1"),
		ev(SourceConfigFile, 0.8, "go.mod#L1"),
		ev(SourceFileExt, 0.8, "census"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Evidence) != 2 {
		t.Errorf("expected deduped evidence of 2, got %d", len(f.Evidence))
	}
	if f.ID == "" {
		t.Error("expected generated finding id")
	}
}

func TestNewFinding_RejectsInvalidEvidence(t *testing.T) {
	_, err := NewFinding("w1", SectionStack, "k", "v", TypeGeneric, []Evidence{
		ev(SourceDoc, 1.5, "README.md"),
	})
	if err == nil {
		t.Fatal("expected validation error for out-of-range weight")
	}
	if !IsValidationError(err) {
		t.Errorf("expected ValidationError, got %T", err)
	}
}

func TestNewFinding_EmptyEvidenceIsUnknown(t *testing.T) {
	f, err := NewFinding("w1", SectionConstraints, "license", "unknown", TypeGeneric, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.CertaintyClass != CertaintyUnknown {
		t.Errorf("expected unknown class for empty evidence, got %s", f.CertaintyClass)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("empty-evidence unknown finding should validate, got %v", err)
	}
}

func TestFinding_Validate_EmptyEvidenceNonUnknown(t *testing.T) {
	f, _ := NewFinding("w1", SectionStack, "k", "v", TypeGeneric, nil)
	f.CertaintyClass = CertaintyCertain
	if err := f.Validate(); err == nil {
		t.Error("expected rejection of empty-evidence finding classified certain")
	}
}

func TestFinding_WithEvidence_PreservesImmutability(t *testing.T) {
	orig, err := NewFinding("w1", SectionStack, "primary_language", "Go", TypeLanguage, []Evidence{
		ev(SourceConfigFile, 1.0, "go.mod#L1"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next, err := orig.WithEvidence(ev(SourceFileExt, 0.8, "census"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(orig.Evidence) != 1 {
		t.Errorf("original finding mutated: evidence count %d", len(orig.Evidence))
	}
	if len(next.Evidence) != 2 {
		t.Errorf("expected new finding with 2 evidence items, got %d", len(next.Evidence))
	}
	if next.ID != orig.ID {
		t.Errorf("derived finding should keep identity, got %s vs %s", next.ID, orig.ID)
	}
}

func TestCertaintyClass_Rank(t *testing.T) {
	order := []CertaintyClass{CertaintyUnknown, CertaintySpeculated, CertaintyInferred, CertaintyCertain}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("expected %s to outrank %s", order[i], order[i-1])
		}
	}
}

func TestAbsence_Validate(t *testing.T) {
	if err := (Absence{Section: SectionOperations, Reason: "no database detected", WorkerID: "w1"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Absence{Section: SectionOperations}).Validate(); err == nil {
		t.Error("expected error for absence without reason")
	}
}
