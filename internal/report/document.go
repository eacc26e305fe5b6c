// Package report turns a finalized Run into the read-only structured
// document the renderer contract exposes, and renders it as JSON, YAML, or
// minimal Markdown.
package report

import (
	"github.com/ppiankov/concord/internal/accumulate"
	"github.com/ppiankov/concord/internal/model"
	"github.com/ppiankov/concord/internal/orchestrate"
)

// Document is the single read-only structure handed to renderers: the Run
// lifecycle record, the per-section rollups, every scored Finding, the
// conflicts (resolved and not), the rejections, and the overall score.
type Document struct {
	Run       model.Run              `json:"run" yaml:"run"`
	Overall   model.OverallScore     `json:"overall" yaml:"overall"`
	Sections  []model.SectionReport  `json:"sections" yaml:"sections"`
	Conflicts []model.Conflict       `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Rejected  []accumulate.Rejection `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	Absences  []model.Absence        `json:"absences,omitempty" yaml:"absences,omitempty"`
}

// Build assembles the document from an orchestration result.
func Build(res *orchestrate.Result) *Document {
	doc := &Document{
		Run:       res.Run,
		Overall:   res.Overall,
		Sections:  res.Sections,
		Conflicts: res.Conflicts,
	}
	if res.Snapshot != nil {
		doc.Rejected = res.Snapshot.Rejected
		doc.Absences = res.Snapshot.Absences
	}
	return doc
}
