package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/concord/internal/model"
)

const sampleManifest = `findings:
  - section: stack
    key: primary_language
    value: Go
    type: language
    evidence:
      - kind: config_file
        locator: "go.mod#L1"
        snippet: "module github.com/example/app"
      - kind: file_ext
        weight: 0.75
        locator: "census"
  - section: identity
    key: name
    value: example-app
    evidence:
      - kind: doc
        locator: "README.md#L1"
absences:
  - section: operations
    reason: no deployment manifests present
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestStaticWorker_LoadsManifest(t *testing.T) {
	cfg := model.DefaultConfig()
	w := NewStaticWorker("static-1", writeManifest(t, sampleManifest), cfg)

	res, err := w.Run(context.Background(), Request{Corpus: "repo"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(res.Findings))
	}

	lang := res.Findings[0]
	if lang.Section != model.SectionStack || lang.Key != "primary_language" || lang.Value != "Go" {
		t.Errorf("unexpected finding: %+v", lang)
	}
	if lang.Type != model.TypeLanguage {
		t.Errorf("expected language type, got %s", lang.Type)
	}
	if lang.WorkerID != "static-1" {
		t.Errorf("expected owner static-1, got %s", lang.WorkerID)
	}

	// Omitted weight falls back to the source-kind table; explicit weight wins.
	if len(lang.Evidence) != 2 {
		t.Fatalf("expected 2 evidence items, got %d", len(lang.Evidence))
	}
	if lang.Evidence[0].Weight != cfg.SourceWeight(model.SourceConfigFile) {
		t.Errorf("expected table weight %v, got %v",
			cfg.SourceWeight(model.SourceConfigFile), lang.Evidence[0].Weight)
	}
	if lang.Evidence[1].Weight != 0.75 {
		t.Errorf("expected explicit weight 0.75, got %v", lang.Evidence[1].Weight)
	}

	// Untyped manifest findings default to generic.
	if res.Findings[1].Type != model.TypeGeneric {
		t.Errorf("expected generic type default, got %s", res.Findings[1].Type)
	}

	if len(res.Absences) != 1 {
		t.Fatalf("expected 1 absence, got %d", len(res.Absences))
	}
	if res.Absences[0].Section != model.SectionOperations || res.Absences[0].WorkerID != "static-1" {
		t.Errorf("unexpected absence: %+v", res.Absences[0])
	}
}

func TestStaticWorker_MissingManifest(t *testing.T) {
	w := NewStaticWorker("static-1", filepath.Join(t.TempDir(), "missing.yaml"), model.DefaultConfig())
	if _, err := w.Run(context.Background(), Request{}); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestStaticWorker_MalformedYAML(t *testing.T) {
	w := NewStaticWorker("static-1", writeManifest(t, "findings: [unclosed"), model.DefaultConfig())
	if _, err := w.Run(context.Background(), Request{}); err == nil {
		t.Error("expected error for malformed manifest")
	}
}

func TestStaticWorker_InvalidFindingRejected(t *testing.T) {
	manifest := `findings:
  - section: stack
    key: primary_language
    value: Go
    evidence:
      - kind: config_file
        weight: 1.5
        locator: "go.mod#L1"
`
	w := NewStaticWorker("static-1", writeManifest(t, manifest), model.DefaultConfig())
	_, err := w.Run(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected validation error for out-of-range weight")
	}
	if !model.IsValidationError(err) {
		t.Errorf("expected ValidationError in chain, got %v", err)
	}
}
