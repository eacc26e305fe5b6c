// Package worker defines the contract between the synthesis core and the
// opaque extraction workers. The core never depends on how a worker decided
// its values, only on the Finding/Evidence shape coming back.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/concord/internal/accumulate"
	"github.com/ppiankov/concord/internal/model"
)

// Request carries everything a worker may consult: an opaque corpus
// reference, a read-only snapshot of the Findings accumulated so far, and
// the deadline the orchestrator enforces externally.
type Request struct {
	Corpus   string
	Snapshot *accumulate.Snapshot
	Deadline time.Time
}

// Result is a worker's complete output. Findings and Absences are appended
// to the Accumulator by the caller; a worker never touches shared state
// directly.
type Result struct {
	Findings []model.Finding
	Absences []model.Absence
}

// Worker is a single analysis task. Run must honor ctx cancellation and
// return rather than block past its deadline; the orchestrator treats
// anything still running at the phase barrier as timed out and ignores its
// late results.
type Worker interface {
	ID() string
	Run(ctx context.Context, req Request) (Result, error)
}

// Invoke runs a worker with the no-uncaught-failure guarantee of the worker
// contract: any panic inside the worker is captured and reported as a
// WorkerError instead of crossing the boundary.
func Invoke(ctx context.Context, w Worker, req Request) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &model.WorkerError{
				WorkerID: w.ID(),
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
	}()

	res, err = w.Run(ctx, req)
	if err != nil {
		return res, &model.WorkerError{WorkerID: w.ID(), Err: err}
	}
	return res, nil
}

// Kinded is implemented by workers that declare a dispatch kind. The
// orchestrator paces launches per kind, so expensive worker families (LLM
// calls) are throttled independently of cheap local ones.
type Kinded interface {
	Kind() string
}

// KindOf returns a worker's dispatch kind, defaulting to "local".
func KindOf(w Worker) string {
	if k, ok := w.(Kinded); ok {
		return k.Kind()
	}
	return "local"
}

// Func adapts a plain function into a Worker, mostly for tests and wiring.
type Func struct {
	WorkerID string
	RunFunc  func(ctx context.Context, req Request) (Result, error)
}

func (f *Func) ID() string { return f.WorkerID }

func (f *Func) Run(ctx context.Context, req Request) (Result, error) {
	return f.RunFunc(ctx, req)
}
