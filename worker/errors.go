package worker

import "errors"

var (
	// ErrDirtyExit is the failure recorded for a job whose worker was
	// unregistered while the job was still running.
	ErrDirtyExit = errors.New("resque/worker: worker exited while processing the job")

	// ErrTaskPanic wraps a panic recovered from a job task.
	ErrTaskPanic = errors.New("resque/worker: job task panicked")

	// ErrInvalidID is returned by ParseID for a malformed worker id.
	ErrInvalidID = errors.New("resque/worker: invalid worker id")
)
