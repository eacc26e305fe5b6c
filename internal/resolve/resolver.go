// Package resolve detects Findings that collide on the same (section, key)
// with differing values and applies the deterministic resolution policy.
//
// The bucket state machine is Open (one value seen) -> Conflicted (a second,
// disagreeing value arrives) -> Resolved | Unresolved. Resolution is a pure
// function of the scored Finding set: re-running it on an unchanged set
// always yields the same status and, if resolved, the same winner.
package resolve

import (
	"sort"

	"github.com/ppiankov/concord/internal/model"
)

// Resolver applies the conflict resolution policy over scored Findings
type Resolver struct{}

// NewResolver creates a new conflict resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

type bucketKey struct {
	section model.SectionName
	key     string
}

// Resolve scans the scored Findings for (section, key) collisions with
// differing values and returns one Conflict per conflicted bucket, in a
// deterministic section/key order. Buckets where every Finding agrees on the
// value produce no Conflict.
func (r *Resolver) Resolve(findings []model.Finding) []model.Conflict {
	buckets := make(map[bucketKey][]model.Finding)
	var order []bucketKey
	for _, f := range findings {
		k := bucketKey{section: f.Section, key: f.Key}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], f)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].section != order[j].section {
			return order[i].section < order[j].section
		}
		return order[i].key < order[j].key
	})

	var conflicts []model.Conflict
	for _, k := range order {
		if c, conflicted := r.resolveBucket(k, buckets[k]); conflicted {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

// resolveBucket applies the policy to one (section, key) bucket. It reports
// conflicted=false when all Findings agree on the value (the bucket stays
// Open, no Conflict exists).
func (r *Resolver) resolveBucket(k bucketKey, competing []model.Finding) (model.Conflict, bool) {
	values := make(map[string]bool, len(competing))
	for _, f := range competing {
		values[f.Value] = true
	}
	if len(values) < 2 {
		return model.Conflict{}, false
	}

	// Deterministic competitor order regardless of arrival interleaving:
	// strongest first, identity as the final sort anchor.
	sorted := make([]model.Finding, len(competing))
	copy(sorted, competing)
	sort.Slice(sorted, func(i, j int) bool {
		if c := comparePolicy(sorted[i], sorted[j]); c != 0 {
			return c > 0
		}
		return sorted[i].ID < sorted[j].ID
	})

	conflict := model.Conflict{
		Section:   k.section,
		Key:       k.key,
		Competing: sorted,
	}

	// The leader wins only if it strictly beats every Finding carrying a
	// different value. A policy tie across values stays Unresolved: arrival
	// order is a concurrency artifact, not evidence, so we never guess.
	leader := sorted[0]
	for _, f := range sorted[1:] {
		if f.Value != leader.Value && comparePolicy(leader, f) == 0 {
			conflict.Status = model.ConflictUnresolved
			return conflict, true
		}
	}

	winner := leader
	conflict.Resolution = &winner
	conflict.Status = model.ConflictResolved
	return conflict, true
}

// comparePolicy orders two Findings by the resolution policy, applied in
// strict order until one discriminates: (1) higher corroboration_score,
// (2) higher certainty class, (3) more total evidence items. Returns >0 when
// a wins, <0 when b wins, 0 on a full tie.
func comparePolicy(a, b model.Finding) int {
	switch {
	case a.CorroborationScore > b.CorroborationScore:
		return 1
	case a.CorroborationScore < b.CorroborationScore:
		return -1
	}

	switch {
	case a.CertaintyClass.Rank() > b.CertaintyClass.Rank():
		return 1
	case a.CertaintyClass.Rank() < b.CertaintyClass.Rank():
		return -1
	}

	switch {
	case len(a.Evidence) > len(b.Evidence):
		return 1
	case len(a.Evidence) < len(b.Evidence):
		return -1
	}

	return 0
}
