package model

import (
	"time"
)

// RunStatus is the Orchestrator's state machine per Run
type RunStatus string

const (
	RunPending      RunStatus = "pending"
	RunPhaseRunning RunStatus = "phase_running"
	RunSynthesizing RunStatus = "synthesizing"
	RunComplete     RunStatus = "complete"
	RunFailed       RunStatus = "failed"
)

// PhaseMode controls how a phase dispatches its workers
type PhaseMode string

const (
	ModeParallel   PhaseMode = "parallel"
	ModeSequential PhaseMode = "sequential"
)

// PhaseStatus summarizes how a phase's workers settled
type PhaseStatus string

const (
	PhasePending  PhaseStatus = "pending"
	PhaseRunning  PhaseStatus = "running"
	PhaseComplete PhaseStatus = "complete" // Every worker succeeded
	PhasePartial  PhaseStatus = "partial"  // Some workers failed or timed out
	PhaseFailed   PhaseStatus = "failed"   // No worker succeeded
	PhaseSkipped  PhaseStatus = "skipped"  // Truncated by the run deadline
)

// WorkerStatus is a worker's terminal (or in-flight) state
type WorkerStatus string

const (
	WorkerPending  WorkerStatus = "pending"
	WorkerRunning  WorkerStatus = "running"
	WorkerSuccess  WorkerStatus = "success"
	WorkerErrored  WorkerStatus = "error"
	WorkerTimedOut WorkerStatus = "timed_out"
)

// WorkerRecord is the Run-side record of one worker invocation. A worker's
// only effect on shared state is appending Findings; everything else about it
// lives here.
type WorkerRecord struct {
	ID           string       `json:"id"`
	Status       WorkerStatus `json:"status"`
	ErrorDetail  string       `json:"error_detail,omitempty"`
	FindingCount int          `json:"finding_count"`
	StartedAt    time.Time    `json:"started_at,omitempty"`
	FinishedAt   time.Time    `json:"finished_at,omitempty"`
}

// PhaseRecord is the Run-side record of one declared phase.
type PhaseRecord struct {
	Name    string         `json:"name"`
	Mode    PhaseMode      `json:"mode"`
	Timeout time.Duration  `json:"timeout"`
	Status  PhaseStatus    `json:"status"`
	Workers []WorkerRecord `json:"workers"`
}

// Run is the top-level lifecycle record. Created at start, mutated only by
// the Orchestrator, immutable once all phases complete or the run is
// terminated on timeout.
type Run struct {
	ID         string        `json:"run_id"`
	Corpus     string        `json:"corpus"`
	Status     RunStatus     `json:"status"`
	Phases     []PhaseRecord `json:"phases"`
	Truncated  bool          `json:"truncated,omitempty"` // Run deadline cut phases short
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
}
