// Package accumulate implements the append-only Finding store shared by all
// workers in a Run. Writes land in per-worker partitions, so concurrent
// workers never contend on each other's state; synthesis reads merged,
// frozen snapshots taken at phase barriers.
package accumulate

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/ppiankov/concord/internal/model"
)

// Rejection records a Finding that violated the Evidence Model invariants.
// Rejected Findings never enter the store, but the rejection itself is kept
// so nothing is silently dropped.
type Rejection struct {
	WorkerID string `json:"worker_id"`
	Key      string `json:"key,omitempty"`
	Reason   string `json:"reason"`
}

type partition struct {
	order    int
	findings []model.Finding
	closed   bool
}

// Accumulator is the single source of truth for Findings across a Run. The
// append path is safe for concurrent writers; everything else happens on the
// orchestrator's synthesis thread.
type Accumulator struct {
	mu         sync.Mutex
	partitions map[string]*partition
	absences   []model.Absence
	rejected   []Rejection
	nextOrder  int
}

// New creates an empty accumulator
func New() *Accumulator {
	return &Accumulator{
		partitions: make(map[string]*partition),
	}
}

// Register creates (or reopens) the partition for a worker before dispatch.
// Registration order is the merge tiebreak, so the orchestrator registers
// workers in phase order.
func (a *Accumulator) Register(workerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.partitions[workerID]; ok {
		p.closed = false
		return
	}
	a.partitions[workerID] = &partition{order: a.nextOrder}
	a.nextOrder++
}

// Append validates and stores one Finding in the worker's partition. Returns
// a ValidationError for malformed Findings (recorded as a Rejection) and
// ErrBarrierClosed for appends arriving after the worker's phase barrier
// closed (late results from uncancellable workers are ignored).
func (a *Accumulator) Append(workerID string, f model.Finding) error {
	if err := f.Validate(); err != nil {
		a.mu.Lock()
		a.rejected = append(a.rejected, Rejection{
			WorkerID: workerID,
			Key:      string(f.Section) + "/" + f.Key,
			Reason:   err.Error(),
		})
		a.mu.Unlock()
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.partitions[workerID]
	if !ok {
		p = &partition{order: a.nextOrder}
		a.nextOrder++
		a.partitions[workerID] = p
	}
	if p.closed {
		return model.ErrBarrierClosed
	}
	p.findings = append(p.findings, f)
	return nil
}

// DeclareAbsence records a worker's explicit "nothing to report here" for a
// section, with its documented reason.
func (a *Accumulator) DeclareAbsence(ab model.Absence) error {
	if err := ab.Validate(); err != nil {
		a.mu.Lock()
		a.rejected = append(a.rejected, Rejection{
			WorkerID: ab.WorkerID,
			Key:      string(ab.Section),
			Reason:   err.Error(),
		})
		a.mu.Unlock()
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.absences = append(a.absences, ab)
	return nil
}

// CloseBarrier freezes the named workers' partitions. Appends after the
// barrier return ErrBarrierClosed.
func (a *Accumulator) CloseBarrier(workerIDs []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range workerIDs {
		if p, ok := a.partitions[id]; ok {
			p.closed = true
		}
	}
}

// Count returns the number of stored Findings for one worker.
func (a *Accumulator) Count(workerID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.partitions[workerID]; ok {
		return len(p.findings)
	}
	return 0
}

// Snapshot is a frozen, merged view of the accumulator. Later appends never
// alter an existing snapshot.
type Snapshot struct {
	Findings []model.Finding `json:"findings"`
	Absences []model.Absence `json:"absences,omitempty"`
	Rejected []Rejection     `json:"rejected,omitempty"`
}

// Snapshot merges all partitions into a frozen copy. Merge order is
// deterministic: partition registration order (phase order, then dispatch
// order), then append order within each partition — never goroutine
// completion order.
func (a *Accumulator) Snapshot() *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]string, 0, len(a.partitions))
	for id := range a.partitions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return a.partitions[ids[i]].order < a.partitions[ids[j]].order
	})

	snap := &Snapshot{}
	for _, id := range ids {
		snap.Findings = append(snap.Findings, a.partitions[id].findings...)
	}
	snap.Absences = append(snap.Absences, a.absences...)
	snap.Rejected = append(snap.Rejected, a.rejected...)
	return snap
}

// BySection groups the snapshot's Findings by section.
func (s *Snapshot) BySection() map[model.SectionName][]model.Finding {
	out := make(map[model.SectionName][]model.Finding)
	for _, f := range s.Findings {
		out[f.Section] = append(out[f.Section], f)
	}
	return out
}

// Digest returns a stable identifier for the snapshot contents, suitable as
// a cache key: two snapshots holding the same Findings in the same merge
// order share a digest.
func (s *Snapshot) Digest() string {
	h := sha256.New()
	for _, f := range s.Findings {
		h.Write([]byte(f.ID))
		h.Write([]byte{0})
	}
	for _, a := range s.Absences {
		h.Write([]byte(string(a.Section) + "|" + a.Reason))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AbsenceFor returns the first recorded absence declaration for a section,
// or nil when none exists.
func (s *Snapshot) AbsenceFor(section model.SectionName) *model.Absence {
	for i := range s.Absences {
		if s.Absences[i].Section == section {
			return &s.Absences[i]
		}
	}
	return nil
}
