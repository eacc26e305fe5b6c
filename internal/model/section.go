package model

// SectionStatus indicates how a section's confidence was produced
type SectionStatus string

const (
	// SectionScored means the confidence was computed from the section's Findings.
	SectionScored SectionStatus = "scored"
	// SectionNotApplicable means zero Findings arrived with a documented
	// absence reason; the section scores 1.0 and takes no coverage penalty.
	SectionNotApplicable SectionStatus = "not_applicable"
	// SectionEmpty means zero Findings and no absence reason: coverage zero.
	SectionEmpty SectionStatus = "empty"
)

// SectionReport is the derived, recomputed rollup for one fixed section.
// Sections are never independently mutated; every barrier rebuilds them from
// the frozen Finding snapshot.
type SectionReport struct {
	Name           SectionName   `json:"name"`
	Status         SectionStatus `json:"status"`
	Confidence     float64       `json:"confidence"`
	CoverageFactor float64       `json:"coverage_factor"`
	FindingCount   int           `json:"finding_count"`
	AbsenceReason  string        `json:"absence_reason,omitempty"`
	Findings       []Finding     `json:"findings,omitempty"`
}

// Penalty is one post-hoc multiplicative adjustment to the overall score.
// Penalties are reported individually (reason + factor), never folded
// silently into the number, so the score stays auditable.
type Penalty struct {
	Reason string                 `json:"reason"`
	Factor float64                `json:"factor"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// OverallScore is the weighted rollup across sections after penalties.
type OverallScore struct {
	Score     float64   `json:"score"`
	Base      float64   `json:"base"`      // Weighted section sum before penalties
	Penalties []Penalty `json:"penalties"` // Applied independently, in order
}
