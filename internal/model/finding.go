package model

import (
	"time"

	"github.com/google/uuid"
)

// Finding represents a single claimed fact about the corpus, owned by the
// worker that created it. Findings are immutable after creation: corrections
// are new Findings, never in-place edits.
type Finding struct {
	ID                 string         `json:"id"`
	WorkerID           string         `json:"worker_id"`
	Section            SectionName    `json:"section"`
	Key                string         `json:"key"`
	Value              string         `json:"value"`
	Type               FindingType    `json:"type"`
	CertaintyClass     CertaintyClass `json:"certainty_class"`
	CertaintyScore     float64        `json:"certainty_score"`
	Evidence           []Evidence     `json:"evidence"`
	CorroborationScore float64        `json:"corroboration_score"`
	CreatedAt          time.Time      `json:"created_at"`
}

// FindingType keys a Finding into the per-type scoring rule table
type FindingType string

const (
	TypeLanguage     FindingType = "language"     // Language detection
	TypeFramework    FindingType = "framework"    // Framework detection
	TypeEntity       FindingType = "entity"       // Domain entity detection
	TypeRelationship FindingType = "relationship" // Entity relationship detection
	TypeGeneric      FindingType = "generic"      // Anything else
)

// CertaintyClass is the coarse confidence band derived from evidence
type CertaintyClass string

const (
	CertaintyCertain    CertaintyClass = "certain"
	CertaintyInferred   CertaintyClass = "inferred"
	CertaintySpeculated CertaintyClass = "speculated"
	CertaintyUnknown    CertaintyClass = "unknown"
)

// Rank orders certainty classes for conflict resolution (higher is stronger)
func (c CertaintyClass) Rank() int {
	switch c {
	case CertaintyCertain:
		return 3
	case CertaintyInferred:
		return 2
	case CertaintySpeculated:
		return 1
	default:
		return 0
	}
}

// SectionName identifies one of the fixed report sections
type SectionName string

const (
	SectionIdentity     SectionName = "identity"
	SectionDomainModel  SectionName = "domain-model"
	SectionCapabilities SectionName = "capabilities"
	SectionStack        SectionName = "stack"
	SectionConventions  SectionName = "conventions"
	SectionConstraints  SectionName = "constraints"
	SectionOperations   SectionName = "operations"
)

// AllSections lists the fixed section set in report order
func AllSections() []SectionName {
	return []SectionName{
		SectionIdentity,
		SectionDomainModel,
		SectionCapabilities,
		SectionStack,
		SectionConventions,
		SectionConstraints,
		SectionOperations,
	}
}

// NewFinding creates a validated Finding. Evidence is deduped on
// (source_kind, locator), keeping the higher weight. A Finding with no
// evidence is only valid as certainty class "unknown", which is what it is
// assigned here; the classifier recomputes class and score at the phase
// barrier.
func NewFinding(workerID string, section SectionName, key, value string, ftype FindingType, evidence []Evidence) (Finding, error) {
	if workerID == "" {
		return Finding{}, &ValidationError{Reason: "finding missing worker id"}
	}
	if section == "" {
		return Finding{}, &ValidationError{Reason: "finding missing section"}
	}
	if key == "" {
		return Finding{}, &ValidationError{Reason: "finding missing key"}
	}
	for _, ev := range evidence {
		if err := ev.Validate(); err != nil {
			return Finding{}, err
		}
	}
	if ftype == "" {
		ftype = TypeGeneric
	}

	return Finding{
		ID:             uuid.NewString(),
		WorkerID:       workerID,
		Section:        section,
		Key:            key,
		Value:          value,
		Type:           ftype,
		CertaintyClass: CertaintyUnknown,
		Evidence:       DedupeEvidence(evidence),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Validate checks the Finding against the Evidence Model invariants.
func (f Finding) Validate() error {
	if f.WorkerID == "" {
		return &ValidationError{Reason: "finding missing worker id"}
	}
	if f.Section == "" || f.Key == "" {
		return &ValidationError{Reason: "finding missing section or key"}
	}
	if len(f.Evidence) == 0 && f.CertaintyClass != CertaintyUnknown {
		return &ValidationError{Reason: "finding with empty evidence must be classified unknown"}
	}
	for _, ev := range f.Evidence {
		if err := ev.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// WithEvidence returns a new Finding with the evidence item added, preserving
// immutability of the receiver. The new evidence set is deduped.
func (f Finding) WithEvidence(ev Evidence) (Finding, error) {
	if err := ev.Validate(); err != nil {
		return Finding{}, err
	}

	next := f
	combined := make([]Evidence, 0, len(f.Evidence)+1)
	combined = append(combined, f.Evidence...)
	combined = append(combined, ev)
	next.Evidence = DedupeEvidence(combined)
	return next, nil
}

// WithScores returns a scored copy of the Finding. Used by the synthesis
// layer at phase barriers; the stored Finding is never mutated.
func (f Finding) WithScores(class CertaintyClass, certainty, corroboration float64) Finding {
	next := f
	next.CertaintyClass = class
	next.CertaintyScore = certainty
	next.CorroborationScore = corroboration
	return next
}

// Absence is a worker's explicit declaration that a section has nothing to
// report, with a documented reason ("no database detected"). An absent
// section with a reason scores 1.0 instead of taking a coverage penalty.
type Absence struct {
	Section  SectionName `json:"section"`
	Reason   string      `json:"reason"`
	WorkerID string      `json:"worker_id"`
}

// Validate checks that the absence declaration carries a reason.
func (a Absence) Validate() error {
	if a.Section == "" {
		return &ValidationError{Reason: "absence missing section"}
	}
	if a.Reason == "" {
		return &ValidationError{Reason: "absence missing reason"}
	}
	return nil
}
