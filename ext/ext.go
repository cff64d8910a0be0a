package ext

import (
	"context"

	"github.com/xraph/resque/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobEnqueued is called after a job is pushed onto a queue.
type JobEnqueued interface {
	OnJobEnqueued(ctx context.Context, queue, class string, args any) error
}

// JobStarted is called before a job's performer runs.
type JobStarted interface {
	OnJobStarted(ctx context.Context, j *job.Job) error
}

// JobCompleted is called after a job performs successfully.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, j *job.Job) error
}

// JobFailed is called when a job is recorded as failed.
type JobFailed interface {
	OnJobFailed(ctx context.Context, j *job.Job, err error) error
}

// ──────────────────────────────────────────────────
// Worker lifecycle hooks
// ──────────────────────────────────────────────────

// WorkerStarted is called once when a worker enters its run loop.
type WorkerStarted interface {
	OnWorkerStarted(ctx context.Context, workerID string) error
}
