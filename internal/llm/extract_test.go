package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/concord/internal/model"
)

func TestParseFindingsValid(t *testing.T) {
	cfg := model.DefaultConfig()
	raw := `{
		"findings": [
			{
				"section": "stack",
				"key": "language",
				"value": "Go",
				"type": "language",
				"evidence": [
					{"kind": "config_file", "locator": "go.mod#L1", "snippet": "module example"},
					{"kind": "file_ext", "locator": "main.go", "snippet": ""}
				]
			}
		],
		"absences": [
			{"section": "operations", "reason": "no deployment artifacts in corpus"}
		]
	}`

	findings, absences, err := ParseFindings("w-llm", raw, cfg)
	if err != nil {
		t.Fatalf("ParseFindings() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}

	f := findings[0]
	if f.WorkerID != "w-llm" {
		t.Errorf("WorkerID = %q, want w-llm", f.WorkerID)
	}
	if f.Section != model.SectionStack {
		t.Errorf("Section = %q, want stack", f.Section)
	}
	if len(f.Evidence) != 2 {
		t.Fatalf("expected 2 evidence items, got %d", len(f.Evidence))
	}
	if f.Evidence[0].Weight != 1.0 {
		t.Errorf("config_file weight = %v, want 1.0 from weight table", f.Evidence[0].Weight)
	}
	if f.Evidence[1].Weight != 0.8 {
		t.Errorf("file_ext weight = %v, want 0.8 from weight table", f.Evidence[1].Weight)
	}

	if len(absences) != 1 {
		t.Fatalf("expected 1 absence, got %d", len(absences))
	}
	if absences[0].Section != model.SectionOperations {
		t.Errorf("absence section = %q, want operations", absences[0].Section)
	}
	if absences[0].WorkerID != "w-llm" {
		t.Errorf("absence worker = %q, want w-llm", absences[0].WorkerID)
	}
}

func TestParseFindingsExplicitWeightOverridesTable(t *testing.T) {
	cfg := model.DefaultConfig()
	raw := `{"findings":[{"section":"stack","key":"lang","value":"Go","type":"language",
		"evidence":[{"kind":"doc","weight":0.45,"locator":"README.md#L1"}]}]}`

	findings, _, err := ParseFindings("w", raw, cfg)
	if err != nil {
		t.Fatalf("ParseFindings() error = %v", err)
	}
	if findings[0].Evidence[0].Weight != 0.45 {
		t.Errorf("weight = %v, want explicit 0.45", findings[0].Evidence[0].Weight)
	}
}

func TestParseFindingsFenced(t *testing.T) {
	cfg := model.DefaultConfig()
	raw := "```json\n{\"findings\":[],\"absences\":[]}\n```"

	findings, absences, err := ParseFindings("w", raw, cfg)
	if err != nil {
		t.Fatalf("ParseFindings() error = %v", err)
	}
	if len(findings) != 0 || len(absences) != 0 {
		t.Errorf("expected empty envelope, got %d findings %d absences", len(findings), len(absences))
	}
}

func TestParseFindingsMalformedJSON(t *testing.T) {
	cfg := model.DefaultConfig()
	_, _, err := ParseFindings("w", "here are the findings: TypeScript", cfg)
	if err == nil {
		t.Fatal("expected error for non-JSON completion")
	}
}

func TestParseFindingsInvalidFinding(t *testing.T) {
	cfg := model.DefaultConfig()
	// Finding with no section fails validation; the whole envelope is rejected.
	raw := `{"findings":[{"section":"","key":"lang","value":"Go","type":"language",
		"evidence":[{"kind":"code","locator":"a.go#L1"}]}]}`

	_, _, err := ParseFindings("w", raw, cfg)
	if err == nil {
		t.Fatal("expected validation error for finding without section")
	}
	if !model.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  \n```json\n{}\n```  ", "{}"},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("%s: stripFences() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBuildExtractPrompt(t *testing.T) {
	cfg := model.DefaultConfig()
	req := ExtractRequest{
		Corpus:       "repo:example",
		Sections:     []string{"stack", "identity"},
		SnapshotJSON: `{"findings":[]}`,
	}

	prompt := BuildExtractPrompt(req, cfg)

	for _, want := range []string{
		"repo:example",
		"stack, identity",
		"config_file: 1.0",
		"naming: 0.3",
		"Prior snapshot",
		`{"findings":[]}`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "cohere"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProviderNoneConfigured(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p != nil {
		t.Error("expected nil provider when none configured")
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Error("expected error for openai without API key")
	}
	if _, err := NewProvider(Config{Provider: "anthropic"}); err == nil {
		t.Error("expected error for anthropic without API key")
	}
}

func TestNewOllamaProviderDefaults(t *testing.T) {
	p, err := NewOllamaProvider(Config{Provider: "ollama", Model: "llama3.2"})
	if err != nil {
		t.Fatalf("NewOllamaProvider() error = %v", err)
	}
	if p.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q, want local default", p.baseURL)
	}
}
