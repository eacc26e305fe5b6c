package score

import (
	"testing"

	"github.com/ppiankov/concord/internal/model"
)

func TestCorroborator_KindCountedOnce(t *testing.T) {
	c := NewCorroborator(model.DefaultConfig())

	// Three doc items at distinct locators: same kind still counts once,
	// so repeating a signal cannot inflate corroboration.
	repeated := finding(t, model.TypeLanguage,
		ev(model.SourceDoc, 0.6, "README.md#L1"),
		ev(model.SourceDoc, 0.6, "README.md#L9"),
		ev(model.SourceDoc, 0.6, "docs/arch.md#L2"),
	)
	single := finding(t, model.TypeLanguage,
		ev(model.SourceDoc, 0.6, "README.md#L1"),
	)

	if got, want := c.Score(repeated), c.Score(single); got != want {
		t.Errorf("repeated same-kind evidence changed corroboration: %v vs %v", got, want)
	}
}

func TestCorroborator_DistinctKindsAccumulate(t *testing.T) {
	c := NewCorroborator(model.DefaultConfig())

	one := finding(t, model.TypeLanguage, ev(model.SourceConfigFile, 1.0, "go.mod#L1"))
	two := finding(t, model.TypeLanguage,
		ev(model.SourceConfigFile, 1.0, "go.mod#L1"),
		ev(model.SourceFileExt, 0.8, "census"),
	)

	if c.Score(two) <= c.Score(one) {
		t.Errorf("adding a distinct source kind should raise corroboration: %v vs %v",
			c.Score(one), c.Score(two))
	}

	// 1.0 + 0.8 over max_possible 3.0
	if got, want := c.Score(two), 1.8/3.0; got != want {
		t.Errorf("expected corroboration %v, got %v", want, got)
	}
}

func TestCorroborator_OrderAndDuplicateInvariant(t *testing.T) {
	c := NewCorroborator(model.DefaultConfig())

	base := finding(t, model.TypeFramework,
		ev(model.SourceConfigFile, 1.0, "package.json#L12"),
		ev(model.SourceNaming, 0.3, "src/components/"),
	)
	noisy := finding(t, model.TypeFramework,
		ev(model.SourceNaming, 0.3, "src/components/"),
		ev(model.SourceConfigFile, 1.0, "package.json#L12"),
		ev(model.SourceConfigFile, 0.7, "package.json#L12"), // duplicate (kind, locator)
	)

	if got, want := c.Score(noisy), c.Score(base); got != want {
		t.Errorf("corroboration sensitive to ordering/duplicates: %v vs %v", got, want)
	}
}

func TestCorroborator_HighCertaintyLowCorroboration(t *testing.T) {
	cfg := model.DefaultConfig()
	classifier := NewClassifier(cfg)
	corroborator := NewCorroborator(cfg)

	// A single authoritative source: meaningful certainty contribution but
	// nothing independent confirms it. The two scores must be distinguishable.
	f := finding(t, model.TypeLanguage, ev(model.SourceConfigFile, 1.0, "go.mod#L1"))

	_, certainty := classifier.Classify(f)
	corroboration := corroborator.Score(f)

	if certainty != corroboration {
		// Same single-source evidence: both normalize the same way here.
		t.Logf("certainty %v, corroboration %v", certainty, corroboration)
	}

	multi := finding(t, model.TypeLanguage,
		ev(model.SourceConfigFile, 1.0, "go.mod#L1"),
		ev(model.SourceConfigFile, 1.0, "tools/go.mod#L1"),
	)
	_, multiCertainty := classifier.Classify(multi)
	multiCorroboration := corroborator.Score(multi)

	if multiCertainty <= certainty {
		t.Errorf("second locator of same kind should raise certainty: %v vs %v", certainty, multiCertainty)
	}
	if multiCorroboration != corroboration {
		t.Errorf("second locator of same kind must not raise corroboration: %v vs %v",
			corroboration, multiCorroboration)
	}
}

func TestCorroborator_Empty(t *testing.T) {
	c := NewCorroborator(model.DefaultConfig())
	if got := c.Score(finding(t, model.TypeGeneric)); got != 0 {
		t.Errorf("expected 0 corroboration for empty evidence, got %v", got)
	}
}
