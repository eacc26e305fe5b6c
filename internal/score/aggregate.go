package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/concord/internal/model"
)

// Aggregator combines certainty and corroboration per Finding and rolls the
// results up to per-section and overall scores, applying coverage and
// penalty adjustments. Every adjustment is reported with its reason, factor,
// and input data so the final number stays auditable.
type Aggregator struct {
	cfg          *model.Config
	classifier   *Classifier
	corroborator *Corroborator
}

// NewAggregator creates a new confidence aggregator
func NewAggregator(cfg *model.Config) *Aggregator {
	return &Aggregator{
		cfg:          cfg,
		classifier:   NewClassifier(cfg),
		corroborator: NewCorroborator(cfg),
	}
}

// ScoreFinding returns a scored copy of the Finding with certainty class,
// certainty score, and corroboration score filled in. The input Finding is
// never mutated.
func (a *Aggregator) ScoreFinding(f model.Finding) model.Finding {
	class, certainty := a.classifier.Classify(f)
	corroboration := a.corroborator.Score(f)
	return f.WithScores(class, certainty, corroboration)
}

// ScoreAll scores every Finding in the slice, preserving order.
func (a *Aggregator) ScoreAll(findings []model.Finding) []model.Finding {
	out := make([]model.Finding, len(findings))
	for i, f := range findings {
		out[i] = a.ScoreFinding(f)
	}
	return out
}

// WeightedScore is the per-finding contribution to its section:
// certainty * (0.5 + 0.5*corroboration). Corroboration can at most halve or
// fully preserve certainty, never dominate it: a single authoritative,
// uncontradicted source is still meaningful.
func WeightedScore(f model.Finding) float64 {
	return f.CertaintyScore * (0.5 + 0.5*f.CorroborationScore)
}

// SectionReport computes the rollup for one section from its scored
// Findings. absence, if non-nil, is a worker's documented reason the section
// has nothing to report; it exempts the section from the coverage penalty
// and scores it 1.0 with status not_applicable, because absence of evidence
// must never silently read as low confidence when absence is itself the
// correct finding.
func (a *Aggregator) SectionReport(name model.SectionName, findings []model.Finding, absence *model.Absence) model.SectionReport {
	report := model.SectionReport{
		Name:         name,
		FindingCount: len(findings),
		Findings:     findings,
	}

	if len(findings) == 0 {
		if absence != nil {
			report.Status = model.SectionNotApplicable
			report.Confidence = 1.0
			report.CoverageFactor = 1.0
			report.AbsenceReason = absence.Reason
			return report
		}
		report.Status = model.SectionEmpty
		return report
	}

	expected := a.cfg.Sections[name].ExpectedMin
	coverage := 1.0
	if expected > 0 {
		coverage = math.Min(1.0, float64(len(findings))/float64(expected))
	}

	var sum float64
	for _, f := range findings {
		sum += WeightedScore(f)
	}
	mean := sum / float64(len(findings))

	report.Status = model.SectionScored
	report.CoverageFactor = coverage
	report.Confidence = coverage * mean
	return report
}

// Overall computes the weighted rollup across sections, then applies the
// configured post-hoc penalties. Each penalty applies independently, is
// reported individually, and the final score is clamped to [0,1].
//
// Unresolved uncertainties are Findings whose evidence never lifted them out
// of the unknown band.
func (a *Aggregator) Overall(sections []model.SectionReport, scored []model.Finding, conflicts []model.Conflict) model.OverallScore {
	var base float64
	for _, s := range sections {
		base += s.Confidence * a.cfg.Sections[s.Name].Weight
	}

	overall := model.OverallScore{Base: base, Score: base}
	p := a.cfg.Penalties

	weak := weakSections(sections, p.WeakSectionThreshold)
	if len(weak) > 0 {
		overall.Score *= p.WeakSectionFactor
		overall.Penalties = append(overall.Penalties, model.Penalty{
			Reason: fmt.Sprintf("%d section(s) below %.2f confidence", len(weak), p.WeakSectionThreshold),
			Factor: p.WeakSectionFactor,
			Data: map[string]interface{}{
				"sections":  weak,
				"threshold": p.WeakSectionThreshold,
			},
		})
	}

	uncertainties := 0
	for _, f := range scored {
		if f.CertaintyClass == model.CertaintyUnknown {
			uncertainties++
		}
	}
	if uncertainties > p.MaxUncertainties {
		overall.Score *= p.UncertaintyFactor
		overall.Penalties = append(overall.Penalties, model.Penalty{
			Reason: fmt.Sprintf("%d unresolved uncertainties exceed limit of %d", uncertainties, p.MaxUncertainties),
			Factor: p.UncertaintyFactor,
			Data: map[string]interface{}{
				"uncertainties": uncertainties,
				"limit":         p.MaxUncertainties,
			},
		})
	}

	unresolved := 0
	for _, c := range conflicts {
		if c.Status == model.ConflictUnresolved {
			unresolved++
		}
	}
	if unresolved > p.MaxUnresolvedConflicts {
		overall.Score *= p.ConflictFactor
		overall.Penalties = append(overall.Penalties, model.Penalty{
			Reason: fmt.Sprintf("%d unresolved conflicts exceed limit of %d", unresolved, p.MaxUnresolvedConflicts),
			Factor: p.ConflictFactor,
			Data: map[string]interface{}{
				"unresolved": unresolved,
				"limit":      p.MaxUnresolvedConflicts,
			},
		})
	}

	overall.Score = math.Max(0, math.Min(1, overall.Score))
	return overall
}

// weakSections returns the names of sections scoring below the threshold,
// sorted for stable reporting. Sections marked not_applicable score 1.0 and
// never appear here; empty sections with no absence reason do.
func weakSections(sections []model.SectionReport, threshold float64) []string {
	var weak []string
	for _, s := range sections {
		if s.Status == model.SectionNotApplicable {
			continue
		}
		if s.Confidence < threshold {
			weak = append(weak, string(s.Name))
		}
	}
	sort.Strings(weak)
	return weak
}
