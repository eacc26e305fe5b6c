package model

import (
	"errors"
	"fmt"
)

// ValidationError marks a Finding or Evidence item that violates the Evidence
// Model invariants. Such items are rejected at creation and never enter the
// Accumulator; the rejection itself is recorded, never silently dropped.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// WorkerError wraps a single worker's internal failure. It is isolated and
// non-fatal to the Run: the worker is marked status=error and the Run
// proceeds with whatever Findings were produced before the failure.
type WorkerError struct {
	WorkerID string
	Err      error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %s: %v", e.WorkerID, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// ErrWorkerTimeout marks a worker that exceeded its deadline. Treated as
// partial success: Findings appended before the deadline are retained.
var ErrWorkerTimeout = errors.New("worker deadline exceeded")

// ErrRunTimeout marks a Run whose global deadline elapsed. Remaining phases
// are truncated and synthesis proceeds with whatever exists.
var ErrRunTimeout = errors.New("run deadline exceeded")

// ErrBarrierClosed marks an append arriving after the phase barrier already
// closed. Late results from uncancellable workers are ignored, not errors
// fatal to anything; callers record and move on.
var ErrBarrierClosed = errors.New("phase barrier closed")
