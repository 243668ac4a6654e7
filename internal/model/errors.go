package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// ErrInvalidDate reports an unparsable or out-of-range birthday.
	ErrInvalidDate = fmt.Errorf("invalid date: %w", ErrValidation)

	// ErrEmptyCandidateSet reports a sampler invocation with no
	// positive-weight candidates. This is a configuration bug, never a
	// normal runtime condition.
	ErrEmptyCandidateSet = errors.New("empty candidate set")
)

// UpstreamError reports a failed call to the generation service.
// Retryable distinguishes transient failures (5xx, network, malformed
// body) from validation failures that must surface immediately.
type UpstreamError struct {
	Status    int
	Retryable bool
	Reason    string
}

func (e *UpstreamError) Error() string {
	kind := "validation"
	if e.Retryable {
		kind = "transient"
	}
	if e.Status > 0 {
		return fmt.Sprintf("generation service %s failure: status %d: %s", kind, e.Status, e.Reason)
	}
	return fmt.Sprintf("generation service %s failure: %s", kind, e.Reason)
}

// SchedulingConflictError reports an attempted curator assignment whose
// period overlaps an already-committed one. Carries the conflicting row
// so a human can resolve it.
type SchedulingConflictError struct {
	Conflict Assignment
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("assignment overlaps existing curator period %s (%s to %s)",
		e.Conflict.CuratorName,
		e.Conflict.StartDate.Format(time.DateOnly),
		e.Conflict.EndDate.Format(time.DateOnly))
}
