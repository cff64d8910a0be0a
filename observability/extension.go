package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/resque/ext"
	"github.com/xraph/resque/job"
)

// Compile-time interface checks.
var (
	_ ext.Extension     = (*MetricsExtension)(nil)
	_ ext.JobEnqueued   = (*MetricsExtension)(nil)
	_ ext.JobStarted    = (*MetricsExtension)(nil)
	_ ext.JobCompleted  = (*MetricsExtension)(nil)
	_ ext.JobFailed     = (*MetricsExtension)(nil)
	_ ext.WorkerStarted = (*MetricsExtension)(nil)
)

const meterName = "github.com/xraph/resque/observability"

// MetricsExtension records lifecycle counters. Job counters carry the
// class and queue attributes.
type MetricsExtension struct {
	JobEnqueued   metric.Int64Counter
	JobStarted    metric.Int64Counter
	JobCompleted  metric.Int64Counter
	JobFailed     metric.Int64Counter
	WorkerStarted metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension on meter.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		// The API hands back a noop instrument alongside any error.
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	return &MetricsExtension{
		JobEnqueued:   counter("resque.job.enqueued", "Jobs pushed onto a queue"),
		JobStarted:    counter("resque.job.started", "Jobs handed to a performer"),
		JobCompleted:  counter("resque.job.completed", "Jobs performed successfully"),
		JobFailed:     counter("resque.job.failed", "Jobs recorded as failed"),
		WorkerStarted: counter("resque.worker.started", "Workers that entered their run loop"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func jobAttrs(class, queue string) metric.AddOption {
	return metric.WithAttributes(
		attribute.String("class", class),
		attribute.String("queue", queue),
	)
}

// OnJobEnqueued implements ext.JobEnqueued.
func (m *MetricsExtension) OnJobEnqueued(ctx context.Context, queue, class string, _ any) error {
	m.JobEnqueued.Add(ctx, 1, jobAttrs(class, queue))
	return nil
}

// OnJobStarted implements ext.JobStarted.
func (m *MetricsExtension) OnJobStarted(ctx context.Context, j *job.Job) error {
	m.JobStarted.Add(ctx, 1, jobAttrs(j.Class(), j.Queue))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, j *job.Job) error {
	m.JobCompleted.Add(ctx, 1, jobAttrs(j.Class(), j.Queue))
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, j *job.Job, _ error) error {
	m.JobFailed.Add(ctx, 1, jobAttrs(j.Class(), j.Queue))
	return nil
}

// OnWorkerStarted implements ext.WorkerStarted.
func (m *MetricsExtension) OnWorkerStarted(ctx context.Context, _ string) error {
	m.WorkerStarted.Add(ctx, 1)
	return nil
}
