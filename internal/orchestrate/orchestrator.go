// Package orchestrate drives a Run through its declared phases: dispatching
// workers, enforcing phase and run deadlines, closing barriers, and invoking
// synthesis on the frozen snapshot at each barrier.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/concord/internal/accumulate"
	"github.com/ppiankov/concord/internal/model"
	"github.com/ppiankov/concord/internal/resolve"
	"github.com/ppiankov/concord/internal/score"
	"github.com/ppiankov/concord/internal/worker"
)

// Phase is one declared step of the phase graph: a named group of workers
// with an execution mode and a timeout.
type Phase struct {
	Name    string
	Mode    model.PhaseMode
	Timeout time.Duration
	Workers []worker.Worker
}

// Result is the finalized, read-only output of a Run: the lifecycle record,
// the scored Findings, and the synthesis rollups. This is the renderer's
// whole input surface.
type Result struct {
	Run       model.Run
	Snapshot  *accumulate.Snapshot
	Scored    []model.Finding
	Sections  []model.SectionReport
	Conflicts []model.Conflict
	Overall   model.OverallScore
}

// Orchestrator executes phase plans. Synthesis runs single-threaded at each
// barrier on a frozen snapshot; only the worker dispatch path is concurrent.
type Orchestrator struct {
	cfg        *model.Config
	aggregator *score.Aggregator
	resolver   *resolve.Resolver
	limiter    *worker.Limiter

	verbose bool
	out     io.Writer
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithVerbose enables progress output to w
func WithVerbose(w io.Writer) Option {
	return func(o *Orchestrator) {
		o.verbose = true
		o.out = w
	}
}

// New creates an orchestrator from the tuning tables.
func New(cfg *model.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		aggregator: score.NewAggregator(cfg),
		resolver:   resolve.NewResolver(),
		limiter:    worker.NewLimiter(cfg.Orchestrator.DispatchRate, cfg.Orchestrator.DispatchBurst),
		out:        io.Discard,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the phase plan against a corpus and returns the finalized
// Result. The Run is always completable: worker errors and timeouts are
// recorded as status metadata, the run deadline truncates remaining phases,
// and synthesis proceeds on whatever Findings exist.
func (o *Orchestrator) Run(ctx context.Context, corpus string, phases []Phase) (*Result, error) {
	if len(phases) == 0 {
		return nil, fmt.Errorf("phase plan is empty")
	}

	run := model.Run{
		ID:        uuid.NewString(),
		Corpus:    corpus,
		Status:    model.RunPending,
		StartedAt: time.Now().UTC(),
	}
	for _, p := range phases {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = o.cfg.Orchestrator.DefaultPhaseTimeout
		}
		run.Phases = append(run.Phases, model.PhaseRecord{
			Name:    p.Name,
			Mode:    p.Mode,
			Timeout: timeout,
			Status:  model.PhasePending,
		})
	}

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.Orchestrator.RunTimeout)
	defer cancel()

	acc := accumulate.New()

	for i := range phases {
		if runCtx.Err() != nil {
			// Run deadline elapsed: truncate the remaining phases and go
			// straight to synthesis with whatever exists.
			run.Truncated = true
			for j := i; j < len(run.Phases); j++ {
				run.Phases[j].Status = model.PhaseSkipped
			}
			o.logf("✗ run deadline elapsed, skipping %d remaining phase(s)\n", len(phases)-i)
			break
		}

		run.Status = model.RunPhaseRunning
		run.Phases[i].Status = model.PhaseRunning
		o.logf("phase %s (%s, %d workers)\n", phases[i].Name, run.Phases[i].Mode, len(phases[i].Workers))

		o.runPhase(runCtx, corpus, acc, phases[i], &run.Phases[i])

		snap := acc.Snapshot()
		scored := o.aggregator.ScoreAll(snap.Findings)
		conflicts := o.resolver.Resolve(scored)
		o.logf("✓ phase %s: %s, %d findings, %d conflicts\n",
			phases[i].Name, run.Phases[i].Status, len(snap.Findings), len(conflicts))
	}

	run.Status = model.RunSynthesizing
	result := o.synthesize(acc, &run)

	run.Status = model.RunComplete
	if allPhasesFailed(run.Phases) {
		run.Status = model.RunFailed
	}
	run.FinishedAt = time.Now().UTC()
	result.Run = run

	o.logf("✓ run %s: %s, overall confidence %.3f\n", run.ID, run.Status, result.Overall.Score)
	return result, nil
}

// runPhase dispatches one phase's workers and closes its barrier. The phase
// record's worker entries are filled with terminal statuses.
func (o *Orchestrator) runPhase(ctx context.Context, corpus string, acc *accumulate.Accumulator, p Phase, rec *model.PhaseRecord) {
	phaseCtx, cancel := context.WithTimeout(ctx, rec.Timeout)
	defer cancel()

	rec.Workers = make([]model.WorkerRecord, len(p.Workers))
	ids := make([]string, len(p.Workers))
	for i, w := range p.Workers {
		rec.Workers[i] = model.WorkerRecord{ID: w.ID(), Status: model.WorkerPending}
		ids[i] = w.ID()
		acc.Register(w.ID())
	}

	switch p.Mode {
	case model.ModeSequential:
		o.runSequential(phaseCtx, corpus, acc, p, rec)
	default:
		o.runParallel(phaseCtx, corpus, acc, p, rec)
	}

	// Barrier: freeze the phase's partitions. Workers that could not be
	// cancelled may still return later; their appends are rejected with
	// ErrBarrierClosed and ignored.
	acc.CloseBarrier(ids)

	rec.Status = phaseOutcome(rec.Workers)
}

// phaseGuard serializes worker-record updates within one phase and marks
// the moment the barrier closed, after which stragglers must not touch the
// record at all.
type phaseGuard struct {
	mu     sync.Mutex
	closed bool
}

// runParallel dispatches every worker concurrently, bounded by the
// configured parallelism and paced per worker kind, then waits for all of
// them to settle or for the phase timeout, whichever comes first.
func (o *Orchestrator) runParallel(ctx context.Context, corpus string, acc *accumulate.Accumulator, p Phase, rec *model.PhaseRecord) {
	snap := acc.Snapshot()

	guard := &phaseGuard{}
	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Orchestrator.MaxParallelWorkers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, w := range p.Workers {
			i, w := i, w
			g.Go(func() error {
				o.runWorker(ctx, corpus, snap, acc, w, rec, i, guard)
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Phase timeout: workers still running are marked timed out and
		// their late results will bounce off the closed barrier. Partial
		// Findings they already appended stay valid.
		guard.mu.Lock()
		guard.closed = true
		for i := range rec.Workers {
			if rec.Workers[i].Status == model.WorkerRunning || rec.Workers[i].Status == model.WorkerPending {
				rec.Workers[i].Status = model.WorkerTimedOut
				rec.Workers[i].ErrorDetail = model.ErrWorkerTimeout.Error()
				rec.Workers[i].FinishedAt = time.Now().UTC()
			}
		}
		guard.mu.Unlock()
	}
}

// runSequential runs workers one at a time. Each worker sees a fresh
// snapshot including everything prior workers in the run appended.
func (o *Orchestrator) runSequential(ctx context.Context, corpus string, acc *accumulate.Accumulator, p Phase, rec *model.PhaseRecord) {
	guard := &phaseGuard{}
	for i, w := range p.Workers {
		if ctx.Err() != nil {
			rec.Workers[i].Status = model.WorkerTimedOut
			rec.Workers[i].ErrorDetail = model.ErrWorkerTimeout.Error()
			continue
		}
		o.runWorker(ctx, corpus, acc.Snapshot(), acc, w, rec, i, guard)
	}
}

// runWorker executes one worker end to end: pacing, invocation, appending
// its results, and recording its terminal status. Statuses only move
// forward: a worker already marked timed_out at the barrier keeps that
// status even if it later returns.
func (o *Orchestrator) runWorker(ctx context.Context, corpus string, snap *accumulate.Snapshot, acc *accumulate.Accumulator, w worker.Worker, rec *model.PhaseRecord, idx int, guard *phaseGuard) {
	if err := o.limiter.Wait(ctx, worker.KindOf(w)); err != nil {
		guard.mu.Lock()
		if !guard.closed {
			rec.Workers[idx].Status = model.WorkerTimedOut
			rec.Workers[idx].ErrorDetail = model.ErrWorkerTimeout.Error()
		}
		guard.mu.Unlock()
		return
	}

	guard.mu.Lock()
	if guard.closed {
		guard.mu.Unlock()
		return
	}
	rec.Workers[idx].Status = model.WorkerRunning
	rec.Workers[idx].StartedAt = time.Now().UTC()
	guard.mu.Unlock()

	deadline, _ := ctx.Deadline()
	res, err := worker.Invoke(ctx, w, worker.Request{
		Corpus:   corpus,
		Snapshot: snap,
		Deadline: deadline,
	})

	// Append whatever the worker produced, even on error: partial findings
	// from a failing worker are still valid evidence.
	appended := 0
	for _, f := range res.Findings {
		if appendErr := acc.Append(w.ID(), f); appendErr == nil {
			appended++
		}
	}
	for _, ab := range res.Absences {
		_ = acc.DeclareAbsence(ab)
	}

	guard.mu.Lock()
	defer guard.mu.Unlock()
	if guard.closed {
		// Barrier already closed; this worker's record says timed_out and
		// its late result is ignored.
		return
	}
	wr := &rec.Workers[idx]
	wr.FindingCount = appended
	wr.FinishedAt = time.Now().UTC()
	switch {
	case err == nil:
		wr.Status = model.WorkerSuccess
		o.logf("  ✓ worker %s: %d findings\n", w.ID(), appended)
	case ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, model.ErrWorkerTimeout):
		wr.Status = model.WorkerTimedOut
		wr.ErrorDetail = err.Error()
		o.logf("  ✗ worker %s timed out (%d findings kept)\n", w.ID(), appended)
	default:
		wr.Status = model.WorkerErrored
		wr.ErrorDetail = err.Error()
		o.logf("  ✗ worker %s: %v\n", w.ID(), err)
	}
}

// synthesize runs the single-threaded synthesis pass on the final frozen
// snapshot: scoring, conflict resolution, section rollups, overall score.
func (o *Orchestrator) synthesize(acc *accumulate.Accumulator, run *model.Run) *Result {
	snap := acc.Snapshot()
	scored := o.aggregator.ScoreAll(snap.Findings)
	conflicts := o.resolver.Resolve(scored)

	bySection := make(map[model.SectionName][]model.Finding)
	for _, f := range scored {
		bySection[f.Section] = append(bySection[f.Section], f)
	}

	var sections []model.SectionReport
	for _, name := range model.AllSections() {
		sections = append(sections, o.aggregator.SectionReport(name, bySection[name], snap.AbsenceFor(name)))
	}

	return &Result{
		Snapshot:  snap,
		Scored:    scored,
		Sections:  sections,
		Conflicts: conflicts,
		Overall:   o.aggregator.Overall(sections, scored, conflicts),
	}
}

// phaseOutcome folds worker terminal statuses into the phase status: every
// worker succeeded means complete, none means failed, anything in between is
// partial.
func phaseOutcome(workers []model.WorkerRecord) model.PhaseStatus {
	if len(workers) == 0 {
		return model.PhaseComplete
	}
	succeeded := 0
	for _, w := range workers {
		if w.Status == model.WorkerSuccess {
			succeeded++
		}
	}
	switch succeeded {
	case len(workers):
		return model.PhaseComplete
	case 0:
		return model.PhaseFailed
	default:
		return model.PhasePartial
	}
}

// allPhasesFailed reports whether no executed phase produced a single
// successful worker. Skipped phases don't count against the run.
func allPhasesFailed(phases []model.PhaseRecord) bool {
	executed := 0
	for _, p := range phases {
		switch p.Status {
		case model.PhaseSkipped, model.PhasePending:
			continue
		case model.PhaseFailed:
			executed++
		default:
			return false
		}
	}
	return executed > 0
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.verbose {
		fmt.Fprintf(o.out, format, args...)
	}
}
