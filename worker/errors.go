package worker

import "github.com/jmgilman/go/errors"

var (
	// ErrPoolNotStarted is returned when work is submitted before Start.
	ErrPoolNotStarted = errors.New(errors.CodeInternal, "worker pool not started")

	// ErrPoolStopped is returned when work is submitted after Stop.
	ErrPoolStopped = errors.New(errors.CodeCanceled, "worker pool stopped")

	// ErrPoolAlreadyStarted is returned by a second Start.
	ErrPoolAlreadyStarted = errors.New(errors.CodeInternal, "worker pool already started")

	// ErrQueueFull is returned when the queue is at capacity.
	ErrQueueFull = errors.New(errors.CodeOverloaded, "worker pool queue full")

	// ErrStopTimeout is returned when workers do not finish within the
	// Stop timeout.
	ErrStopTimeout = errors.New(errors.CodeTimeout, "timeout waiting for workers to stop")
)
