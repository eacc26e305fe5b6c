package model

import "testing"

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must satisfy table invariants: %v", err)
	}
}

func TestConfig_Validate_SectionWeightSum(t *testing.T) {
	cfg := DefaultConfig()
	rule := cfg.Sections[SectionIdentity]
	rule.Weight = 0.5
	cfg.Sections[SectionIdentity] = rule

	if err := cfg.Validate(); err == nil {
		t.Error("expected error when section weights do not sum to 1.0")
	}
}

func TestConfig_Validate_BandOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bands.Inferred = 0.97
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-order bands")
	}
}

func TestConfig_Validate_SourceWeightRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourceWeights[SourceNaming] = 1.2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for source weight above 1")
	}
}

func TestConfig_MaxPossible_FallsBackToGeneric(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.MaxPossible(TypeLanguage); got != 3.0 {
		t.Errorf("expected language cap 3.0, got %v", got)
	}
	if got := cfg.MaxPossible(FindingType("exotic")); got != cfg.Rules[TypeGeneric].MaxPossible {
		t.Errorf("expected generic fallback, got %v", got)
	}
}

func TestConfig_SourceWeight_Fallback(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.SourceWeight(SourceConfigFile); got != 1.0 {
		t.Errorf("expected 1.0 for config_file, got %v", got)
	}
	if got := cfg.SourceWeight(SourceKind("mystery")); got != cfg.SourceWeights[SourceDefault] {
		t.Errorf("expected default-assumption fallback, got %v", got)
	}
}
