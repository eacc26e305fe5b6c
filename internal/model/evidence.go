package model

import "time"

// Evidence represents one piece of support behind a Finding
type Evidence struct {
	SourceKind  SourceKind `json:"source_kind" yaml:"source_kind"`  // What kind of signal produced it
	Weight      float64    `json:"weight" yaml:"weight"`            // Authority weight in (0,1]
	Locator     string     `json:"locator" yaml:"locator"`          // Opaque position: file+line, doc+section
	Snippet     string     `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	CollectedAt time.Time  `json:"collected_at" yaml:"collected_at"`
}

// SourceKind classifies where a piece of evidence came from
type SourceKind string

const (
	SourceConfigFile SourceKind = "config_file" // Explicit declaration in a config/manifest file
	SourceLockfile   SourceKind = "lockfile"    // Resolved dependency lockfile
	SourceFileExt    SourceKind = "file_ext"    // File extension census
	SourceNaming     SourceKind = "naming"      // Inferred from naming conventions
	SourceDoc        SourceKind = "doc"         // Project documentation
	SourceCode       SourceKind = "code"        // Direct source inspection
	SourceDefault    SourceKind = "default"     // Default assumption, weakest signal
)

// Validate checks the Evidence Model invariants for a single item
func (e Evidence) Validate() error {
	if e.SourceKind == "" {
		return &ValidationError{Reason: "evidence missing source kind"}
	}
	if e.Locator == "" {
		return &ValidationError{Reason: "evidence missing locator"}
	}
	if e.Weight <= 0 || e.Weight > 1 {
		return &ValidationError{Reason: "evidence weight must be in (0,1]"}
	}
	return nil
}

// dedupeKey identifies duplicate evidence: same kind observed at the same place
type dedupeKey struct {
	kind    SourceKind
	locator string
}

// DedupeEvidence collapses duplicate (source_kind, locator) entries, keeping
// the highest weight among duplicates. Output order is first occurrence, so
// the result is independent of how duplicates were interleaved.
func DedupeEvidence(list []Evidence) []Evidence {
	if len(list) == 0 {
		return nil
	}

	index := make(map[dedupeKey]int, len(list))
	out := make([]Evidence, 0, len(list))

	for _, ev := range list {
		key := dedupeKey{kind: ev.SourceKind, locator: ev.Locator}
		if i, seen := index[key]; seen {
			if ev.Weight > out[i].Weight {
				out[i] = ev
			}
			continue
		}
		index[key] = len(out)
		out = append(out, ev)
	}

	return out
}
