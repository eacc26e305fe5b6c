package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/concord/internal/accumulate"
	"github.com/ppiankov/concord/internal/model"
	"github.com/ppiankov/concord/internal/orchestrate"
)

func sampleResult(t *testing.T) *orchestrate.Result {
	t.Helper()

	f1, err := model.NewFinding("w1", model.SectionStack, "primary_language", "TypeScript", model.TypeLanguage,
		[]model.Evidence{
			{SourceKind: model.SourceConfigFile, Weight: 1.0, Locator: "tsconfig.json#L1", CollectedAt: time.Now()},
			{SourceKind: model.SourceFileExt, Weight: 0.8, Locator: "src/index.ts", CollectedAt: time.Now()},
		})
	if err != nil {
		t.Fatalf("NewFinding: %v", err)
	}
	f2, err := model.NewFinding("w2", model.SectionStack, "primary_language", "JavaScript", model.TypeLanguage,
		[]model.Evidence{
			{SourceKind: model.SourceNaming, Weight: 0.3, Locator: "package.json#L2", CollectedAt: time.Now()},
		})
	if err != nil {
		t.Fatalf("NewFinding: %v", err)
	}

	return &orchestrate.Result{
		Run: model.Run{
			ID:     "run-1",
			Corpus: "repo:example",
			Status: model.RunComplete,
		},
		Snapshot: &accumulate.Snapshot{
			Findings: []model.Finding{f1, f2},
			Absences: []model.Absence{{Section: model.SectionOperations, Reason: "no deploy artifacts", WorkerID: "w1"}},
			Rejected: []accumulate.Rejection{{WorkerID: "w2", Key: "stack/x", Reason: "finding missing section or key"}},
		},
		Sections: []model.SectionReport{
			{Name: model.SectionStack, Status: model.SectionScored, Confidence: 0.42, FindingCount: 2},
			{Name: model.SectionOperations, Status: model.SectionNotApplicable, Confidence: 1.0, AbsenceReason: "no deploy artifacts"},
		},
		Conflicts: []model.Conflict{{
			Section:   model.SectionStack,
			Key:       "primary_language",
			Competing: []model.Finding{f1, f2},
			Status:    model.ConflictUnresolved,
		}},
		Overall: model.OverallScore{
			Score: 0.61,
			Base:  0.68,
			Penalties: []model.Penalty{
				{Reason: "1 section(s) below 0.50 confidence", Factor: 0.9},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	doc := Build(sampleResult(t))

	if doc.Run.ID != "run-1" {
		t.Errorf("run id = %q", doc.Run.ID)
	}
	if len(doc.Rejected) != 1 {
		t.Errorf("expected rejection carried into document, got %d", len(doc.Rejected))
	}
	if len(doc.Absences) != 1 {
		t.Errorf("expected absence carried into document, got %d", len(doc.Absences))
	}
}

func TestRenderJSON(t *testing.T) {
	doc := Build(sampleResult(t))
	data, err := RenderJSON(doc)
	if err != nil {
		t.Fatalf("RenderJSON() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := decoded["overall"]; !ok {
		t.Error("JSON output missing overall score")
	}
	if _, ok := decoded["sections"]; !ok {
		t.Error("JSON output missing sections")
	}
}

func TestRenderYAML(t *testing.T) {
	doc := Build(sampleResult(t))
	data, err := RenderYAML(doc)
	if err != nil {
		t.Fatalf("RenderYAML() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
}

func TestRenderMarkdown(t *testing.T) {
	doc := Build(sampleResult(t))
	data, err := RenderMarkdown(doc)
	if err != nil {
		t.Fatalf("RenderMarkdown() error = %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"repo:example",
		"0.610",
		"| stack | 0.420 | scored | 2 |",
		"not applicable: no deploy artifacts",
		"Unresolved Conflicts",
		`"TypeScript"`,
		"1 finding(s) rejected",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	doc := Build(sampleResult(t))
	if _, err := Render(doc, Format("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
}
