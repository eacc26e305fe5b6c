package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/concord/internal/model"
)

// Format selects a renderer
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Render serializes the document in the requested format.
func Render(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return RenderJSON(doc)
	case FormatYAML:
		return RenderYAML(doc)
	case FormatMarkdown:
		return RenderMarkdown(doc)
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// RenderJSON renders the full document as indented JSON.
func RenderJSON(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// RenderYAML renders the full document as YAML.
func RenderYAML(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// RenderMarkdown renders a compact human-readable summary: scores, section
// table, unresolved conflicts, penalties. Findings are summarized, not
// dumped; the JSON/YAML renderers carry the full detail.
func RenderMarkdown(doc *Document) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Synthesis Report: %s\n\n", doc.Run.Corpus)
	fmt.Fprintf(&b, "Run `%s` — status **%s**", doc.Run.ID, doc.Run.Status)
	if doc.Run.Truncated {
		b.WriteString(" (truncated by run deadline)")
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "**Overall confidence: %.3f**", doc.Overall.Score)
	if len(doc.Overall.Penalties) > 0 {
		fmt.Fprintf(&b, " (base %.3f before penalties)", doc.Overall.Base)
	}
	b.WriteString("\n\n")

	if len(doc.Overall.Penalties) > 0 {
		b.WriteString("## Penalties\n\n")
		for _, p := range doc.Overall.Penalties {
			fmt.Fprintf(&b, "- x%.2f %s\n", p.Factor, p.Reason)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Sections\n\n")
	b.WriteString("| Section | Confidence | Status | Findings |\n")
	b.WriteString("|---------|-----------:|--------|---------:|\n")
	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "| %s | %.3f | %s | %d |\n", s.Name, s.Confidence, s.Status, s.FindingCount)
	}
	b.WriteString("\n")

	for _, s := range doc.Sections {
		if s.Status == model.SectionNotApplicable {
			fmt.Fprintf(&b, "- `%s` not applicable: %s\n", s.Name, s.AbsenceReason)
		}
	}

	if unresolved := unresolvedConflicts(doc.Conflicts); len(unresolved) > 0 {
		b.WriteString("\n## Unresolved Conflicts\n\n")
		for _, c := range unresolved {
			fmt.Fprintf(&b, "- `%s/%s`: ", c.Section, c.Key)
			for i, f := range c.Competing {
				if i > 0 {
					b.WriteString(" vs ")
				}
				fmt.Fprintf(&b, "%q (%s, corroboration %.2f)", f.Value, f.CertaintyClass, f.CorroborationScore)
			}
			b.WriteString("\n")
		}
	}

	if len(doc.Rejected) > 0 {
		fmt.Fprintf(&b, "\n%d finding(s) rejected for evidence violations.\n", len(doc.Rejected))
	}

	return []byte(b.String()), nil
}

func unresolvedConflicts(conflicts []model.Conflict) []model.Conflict {
	var out []model.Conflict
	for _, c := range conflicts {
		if c.Status == model.ConflictUnresolved {
			out = append(out, c)
		}
	}
	return out
}
