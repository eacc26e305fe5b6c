package score

import (
	"math"

	"github.com/ppiankov/concord/internal/model"
)

// Classifier maps a Finding's evidence set to a certainty class and score
// using the per-finding-type rule table. Classification is a pure function of
// the deduped evidence set: identical inputs always classify identically.
type Classifier struct {
	cfg *model.Config
}

// NewClassifier creates a new classifier
func NewClassifier(cfg *model.Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify computes (certainty_class, certainty_score) for a Finding.
//
// raw = Σ weight over deduped evidence, capped by the finding type's
// max_possible; normalized = min(raw / max_possible, 1.0). The band
// boundaries are the same values that bound the score's valid range, so the
// normalized value doubles as the certainty score.
func (c *Classifier) Classify(f model.Finding) (model.CertaintyClass, float64) {
	evidence := model.DedupeEvidence(f.Evidence)
	if len(evidence) == 0 {
		return model.CertaintyUnknown, 0
	}

	var raw float64
	for _, ev := range evidence {
		raw += ev.Weight
	}

	normalized := math.Min(raw/c.cfg.MaxPossible(f.Type), 1.0)
	return c.band(normalized), normalized
}

// band maps a normalized score into its certainty class
func (c *Classifier) band(score float64) model.CertaintyClass {
	switch {
	case score >= c.cfg.Bands.Certain:
		return model.CertaintyCertain
	case score >= c.cfg.Bands.Inferred:
		return model.CertaintyInferred
	case score >= c.cfg.Bands.Speculated:
		return model.CertaintySpeculated
	default:
		return model.CertaintyUnknown
	}
}
