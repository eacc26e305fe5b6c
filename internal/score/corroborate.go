package score

import (
	"math"

	"github.com/ppiankov/concord/internal/model"
)

// Corroborator measures independent source diversity behind a Finding,
// distinct from raw evidence mass. Each source kind counts at most once, so
// a worker cannot inflate its own confidence by repeating the same signal.
// Callers use this to tell "certain but unconfirmed" apart from "certain and
// cross-validated".
type Corroborator struct {
	cfg *model.Config
}

// NewCorroborator creates a new corroboration engine
func NewCorroborator(cfg *model.Config) *Corroborator {
	return &Corroborator{cfg: cfg}
}

// Score computes the 0-1 corroboration score: the per-kind maximum weights
// summed over distinct source kinds, divided by the finding type's
// max_possible. Invariant to evidence ordering and to duplicate
// (source_kind, locator) entries.
func (c *Corroborator) Score(f model.Finding) float64 {
	evidence := model.DedupeEvidence(f.Evidence)
	if len(evidence) == 0 {
		return 0
	}

	perKind := make(map[model.SourceKind]float64, len(evidence))
	for _, ev := range evidence {
		if ev.Weight > perKind[ev.SourceKind] {
			perKind[ev.SourceKind] = ev.Weight
		}
	}

	var sum float64
	for _, w := range perKind {
		sum += w
	}

	return math.Min(sum/c.cfg.MaxPossible(f.Type), 1.0)
}
