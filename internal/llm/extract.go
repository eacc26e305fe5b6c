package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/concord/internal/model"
)

// findingsEnvelope is the strict JSON shape an extraction model must return.
// Anything outside this shape is a worker error, never a partial guess.
type findingsEnvelope struct {
	Findings []envelopeFinding `json:"findings"`
	Absences []envelopeAbsence `json:"absences"`
}

type envelopeFinding struct {
	Section  string             `json:"section"`
	Key      string             `json:"key"`
	Value    string             `json:"value"`
	Type     string             `json:"type"`
	Evidence []envelopeEvidence `json:"evidence"`
}

type envelopeEvidence struct {
	Kind    string   `json:"kind"`
	Weight  *float64 `json:"weight"`
	Locator string   `json:"locator"`
	Snippet string   `json:"snippet"`
}

type envelopeAbsence struct {
	Section string `json:"section"`
	Reason  string `json:"reason"`
}

// BuildExtractPrompt builds the default extraction prompt. The weight table
// is spelled out so the model labels evidence with the kinds the synthesis
// core understands; locators are passed through opaquely.
func BuildExtractPrompt(req ExtractRequest, cfg *model.Config) string {
	var b strings.Builder

	b.WriteString("You are one extraction worker among several analyzing a corpus.\n")
	b.WriteString("Corpus reference: " + req.Corpus + "\n\n")

	if len(req.Sections) > 0 {
		b.WriteString("Report only on these sections: " + strings.Join(req.Sections, ", ") + "\n")
	} else {
		b.WriteString("Sections: identity, domain-model, capabilities, stack, conventions, constraints, operations\n")
	}

	b.WriteString("\nEvidence source kinds and their weights:\n")
	for _, kind := range []model.SourceKind{
		model.SourceConfigFile, model.SourceLockfile, model.SourceCode,
		model.SourceFileExt, model.SourceDoc, model.SourceNaming, model.SourceDefault,
	} {
		fmt.Fprintf(&b, "  %s: %.1f\n", kind, cfg.SourceWeight(kind))
	}

	b.WriteString(`
Rules:
- Every finding must cite at least one evidence item with a concrete locator (file#line or doc#section).
- Do not restate findings already present in the prior snapshot; corroborate or contradict them instead.
- If a section genuinely has nothing to report, declare an absence with a reason instead of inventing findings.
- Respond with ONLY a JSON object of the shape:
  {"findings":[{"section":"...","key":"...","value":"...","type":"...","evidence":[{"kind":"...","locator":"...","snippet":"..."}]}],"absences":[{"section":"...","reason":"..."}]}
`)

	if req.SnapshotJSON != "" {
		b.WriteString("\nPrior snapshot:\n" + req.SnapshotJSON + "\n")
	}

	return b.String()
}

// ParseFindings parses a model completion into validated Findings owned by
// workerID. Markdown code fences around the JSON are tolerated; any other
// deviation from the envelope is an error.
func ParseFindings(workerID, raw string, cfg *model.Config) ([]model.Finding, []model.Absence, error) {
	cleaned := stripFences(raw)

	var env findingsEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return nil, nil, fmt.Errorf("parse findings envelope: %w", err)
	}

	now := time.Now().UTC()
	var findings []model.Finding
	for i, ef := range env.Findings {
		evidence := make([]model.Evidence, 0, len(ef.Evidence))
		for _, ee := range ef.Evidence {
			kind := model.SourceKind(ee.Kind)
			weight := cfg.SourceWeight(kind)
			if ee.Weight != nil {
				weight = *ee.Weight
			}
			evidence = append(evidence, model.Evidence{
				SourceKind:  kind,
				Weight:      weight,
				Locator:     ee.Locator,
				Snippet:     ee.Snippet,
				CollectedAt: now,
			})
		}

		f, err := model.NewFinding(workerID, model.SectionName(ef.Section), ef.Key, ef.Value,
			model.FindingType(ef.Type), evidence)
		if err != nil {
			return nil, nil, fmt.Errorf("envelope finding %d: %w", i, err)
		}
		findings = append(findings, f)
	}

	var absences []model.Absence
	for _, ea := range env.Absences {
		absences = append(absences, model.Absence{
			Section:  model.SectionName(ea.Section),
			Reason:   ea.Reason,
			WorkerID: workerID,
		})
	}

	return findings, absences, nil
}

// stripFences removes a surrounding markdown code fence, if present
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.LastIndex(trimmed, "```"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.TrimSpace(trimmed)
}
