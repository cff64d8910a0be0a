package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/resque/job"
)

// meterName is the instrumentation scope name for resque metrics.
const meterName = "github.com/xraph/resque"

// Metrics returns middleware that records per-job execution metrics using
// the global MeterProvider.
//
// Instruments:
//   - resque.job.duration (Float64Histogram): performer time in seconds
//   - resque.job.executions (Int64Counter): performer calls
//   - resque.job.args.size (Int64Histogram): encoded argument bytes
//
// All carry class, queue, tracked and outcome (see Outcome).
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API hands back noop instruments.
	duration, _ := meter.Float64Histogram(
		"resque.job.duration",
		metric.WithDescription("Duration of job execution in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"resque.job.executions",
		metric.WithDescription("Total number of job executions"),
		metric.WithUnit("{execution}"),
	)
	argsSize, _ := meter.Int64Histogram(
		"resque.job.args.size",
		metric.WithDescription("Size of the encoded job arguments"),
		metric.WithUnit("By"),
	)

	return func(ctx context.Context, j *job.Job, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		attrs := metric.WithAttributes(
			attribute.String("class", j.Class()),
			attribute.String("queue", j.Queue),
			attribute.Bool("tracked", j.Token() != ""),
			attribute.String("outcome", Outcome(err)),
		)
		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)
		argsSize.Record(ctx, int64(len(j.Payload.Args)), attrs)
		return err
	}
}
