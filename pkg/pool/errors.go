package pool

// ============================================================================
// Dynapool Errors - Sentinel Error Definitions
// ============================================================================
//
// Package: pkg/pool
// File: errors.go
// Purpose: Define the error kinds raised by the queue and the pool manager
//
// Error Kinds:
//   - ErrQueueClosed: raised by the bounded-wait queue's push/pop after/at close
//   - ErrPoolStopped: raised by Submit when the pool is no longer Running
//   - ErrBoundViolation: raised by SetUpperLimit/SetLowerLimit when the new
//     bound would invert the ordering with the other bound
//
// Worker self-termination (an abnormal return from a user thunk) is not
// surfaced as one of these errors: it aborts only the offending worker and
// leaves the pool Running. It is observable via WorkersCount, and through the
// pool's logger and Observer when those are attached.
//
// ============================================================================

import "errors"

var (
	// ErrQueueClosed indicates the bounded-wait queue is closed: no further
	// pushes are accepted, and pop fails once the queue is drained.
	ErrQueueClosed = errors.New("pool: queue is closed")

	// ErrPoolStopped indicates Submit was called after Stop.
	ErrPoolStopped = errors.New("pool: stopped")

	// ErrBoundViolation indicates a bound mutation would make lower > upper.
	ErrBoundViolation = errors.New("pool: lower bound exceeds upper bound")
)
