package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xraph/resque/status"
)

// Payload is the serialized form of a queued job.
type Payload struct {
	Class string          `json:"class"`
	Args  json.RawMessage `json:"args"`
	ID    string          `json:"id,omitempty"`
}

// Job is a payload drawn from (or destined for) a queue. A Job is owned
// by the worker executing it and discarded once its result is recorded.
type Job struct {
	// Queue is the queue the job was reserved from.
	Queue string

	// Payload is the decoded queue entry.
	Payload Payload

	// Worker is the id of the worker that claimed the job, empty when the
	// job is performed standalone.
	Worker string

	svc    *Service
	result Result
}

// Token returns the status token, empty when the job is not tracked.
func (j *Job) Token() string { return j.Payload.ID }

// Class returns the class name used to resolve the performer.
func (j *Job) Class() string { return j.Payload.Class }

// Arguments decodes the job arguments into a generic tree. Numbers are
// returned as json.Number.
func (j *Job) Arguments() (any, error) {
	v, err := decodeArgs(j.Payload.Args)
	if err != nil {
		return nil, fmt.Errorf("resque/job: decode args: %w", err)
	}
	return v, nil
}

// Bind decodes the job arguments into v.
func (j *Job) Bind(v any) error {
	if len(j.Payload.Args) == 0 {
		return nil
	}
	if err := json.Unmarshal(j.Payload.Args, v); err != nil {
		return fmt.Errorf("resque/job: bind args for %q: %w", j.Payload.Class, err)
	}
	return nil
}

// Status returns the tracked status, or status.Absent when the job has
// no token.
func (j *Job) Status(ctx context.Context) (status.Status, error) {
	if j.Payload.ID == "" || j.svc == nil {
		return status.Absent, nil
	}
	return j.svc.tracker.Get(ctx, j.Payload.ID)
}

// UpdateStatus writes s for a tracked job. Untracked jobs are ignored.
func (j *Job) UpdateStatus(ctx context.Context, s status.Status) error {
	if j.Payload.ID == "" || j.svc == nil {
		return nil
	}
	return j.svc.tracker.Update(ctx, j.Payload.ID, s)
}

// Result returns the outcome of the last Perform.
func (j *Job) Result() Result { return j.result }

// Recreate enqueues a new job with the same queue, class and arguments.
// It gets a fresh token when the original is still being tracked. The
// original status record is left alone. Returns the new token, empty
// when untracked.
func (j *Job) Recreate(ctx context.Context) (string, error) {
	if j.svc == nil {
		return "", ErrNoService
	}
	track, err := j.svc.tracker.IsTracking(ctx, j.Payload.ID)
	if err != nil {
		return "", err
	}
	return j.svc.Create(ctx, j.Queue, j.Payload.Class, j.Payload.Args, track)
}

func (j *Job) String() string {
	args := string(j.Payload.Args)
	if args == "" {
		args = "null"
	}
	if j.Payload.ID != "" {
		return fmt.Sprintf("(Job{%s} | ID: %s | %s | %s)", j.Queue, j.Payload.ID, j.Payload.Class, args)
	}
	return fmt.Sprintf("(Job{%s} | %s | %s)", j.Queue, j.Payload.Class, args)
}
