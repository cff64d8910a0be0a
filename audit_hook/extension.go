package audithook

import (
	"context"
	"log/slog"

	"github.com/xraph/resque/ext"
	"github.com/xraph/resque/job"
)

var (
	_ ext.Extension     = (*Extension)(nil)
	_ ext.JobEnqueued   = (*Extension)(nil)
	_ ext.JobStarted    = (*Extension)(nil)
	_ ext.JobCompleted  = (*Extension)(nil)
	_ ext.JobFailed     = (*Extension)(nil)
	_ ext.WorkerStarted = (*Extension)(nil)
)

// Severity levels.
const (
	SeverityInfo     = "info"
	SeverityCritical = "critical"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditEvent is one recorded lifecycle event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// LogRecorder writes each event as one log record. Failures are logged at
// error level, everything else at info.
func LogRecorder(l *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, evt *AuditEvent) error {
		level := slog.LevelInfo
		if evt.Outcome == OutcomeFailure {
			level = slog.LevelError
		}
		attrs := []slog.Attr{
			slog.String("action", evt.Action),
			slog.String("resource", evt.Resource),
			slog.String("resource_id", evt.ResourceID),
			slog.String("outcome", evt.Outcome),
			slog.String("severity", evt.Severity),
		}
		if evt.Reason != "" {
			attrs = append(attrs, slog.String("reason", evt.Reason))
		}
		for k, v := range evt.Metadata {
			attrs = append(attrs, slog.Any(k, v))
		}
		l.LogAttrs(ctx, level, "audit", attrs...)
		return nil
	})
}

// Extension records an audit event for every lifecycle hook.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all
	logger   *slog.Logger
}

// New creates an Extension recording through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// OnJobEnqueued implements ext.JobEnqueued.
func (e *Extension) OnJobEnqueued(ctx context.Context, queue, class string, _ any) error {
	return e.record(ctx, &AuditEvent{
		Action:     ActionJobEnqueued,
		Resource:   ResourceJob,
		Category:   CategoryJob,
		ResourceID: class,
		Metadata:   map[string]any{"class": class, "queue": queue},
		Outcome:    OutcomeSuccess,
		Severity:   SeverityInfo,
	})
}

// OnJobStarted implements ext.JobStarted.
func (e *Extension) OnJobStarted(ctx context.Context, j *job.Job) error {
	return e.record(ctx, e.jobEvent(ActionJobStarted, j, nil))
}

// OnJobCompleted implements ext.JobCompleted.
func (e *Extension) OnJobCompleted(ctx context.Context, j *job.Job) error {
	return e.record(ctx, e.jobEvent(ActionJobCompleted, j, nil))
}

// OnJobFailed implements ext.JobFailed.
func (e *Extension) OnJobFailed(ctx context.Context, j *job.Job, jobErr error) error {
	return e.record(ctx, e.jobEvent(ActionJobFailed, j, jobErr))
}

// OnWorkerStarted implements ext.WorkerStarted.
func (e *Extension) OnWorkerStarted(ctx context.Context, workerID string) error {
	return e.record(ctx, &AuditEvent{
		Action:     ActionWorkerStarted,
		Resource:   ResourceWorker,
		Category:   CategoryWorker,
		ResourceID: workerID,
		Outcome:    OutcomeSuccess,
		Severity:   SeverityInfo,
	})
}

// jobEvent identifies a job by its status token, or by class when it is
// untracked.
func (e *Extension) jobEvent(action string, j *job.Job, jobErr error) *AuditEvent {
	id := j.Token()
	if id == "" {
		id = j.Class()
	}
	evt := &AuditEvent{
		Action:     action,
		Resource:   ResourceJob,
		Category:   CategoryJob,
		ResourceID: id,
		Metadata:   map[string]any{"class": j.Class(), "queue": j.Queue},
		Outcome:    OutcomeSuccess,
		Severity:   SeverityInfo,
	}
	if j.Worker != "" {
		evt.Metadata["worker"] = j.Worker
	}
	if jobErr != nil {
		evt.Outcome = OutcomeFailure
		evt.Severity = SeverityCritical
		evt.Reason = jobErr.Error()
		evt.Metadata["error"] = jobErr.Error()
	}
	return evt
}

// record sends evt when its action is enabled. Recorder errors are logged
// and never returned.
func (e *Extension) record(ctx context.Context, evt *AuditEvent) error {
	if e.enabled != nil && !e.enabled[evt.Action] {
		return nil
	}
	if err := e.recorder.Record(ctx, evt); err != nil {
		e.logger.Warn("audit record failed",
			slog.String("action", evt.Action),
			slog.String("resource_id", evt.ResourceID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
