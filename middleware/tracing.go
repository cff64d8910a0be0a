package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/resque/job"
)

// tracerName is the instrumentation scope name for resque tracing.
const tracerName = "github.com/xraph/resque"

// Tracing returns middleware that wraps job execution in an OpenTelemetry
// span using the global TracerProvider. Without one it is a pass-through.
//
// Span attributes: resque.job.class, resque.queue, resque.worker,
// resque.job.tracked, resque.job.args_bytes, resque.job.token (tracked
// jobs only) and, once the performer returns, resque.job.outcome. Any
// outcome other than completed sets codes.Error.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		attrs := []attribute.KeyValue{
			attribute.String("resque.job.class", j.Class()),
			attribute.String("resque.queue", j.Queue),
			attribute.String("resque.worker", j.Worker),
			attribute.Bool("resque.job.tracked", j.Token() != ""),
			attribute.Int("resque.job.args_bytes", len(j.Payload.Args)),
		}
		if token := j.Token(); token != "" {
			attrs = append(attrs, attribute.String("resque.job.token", token))
		}
		ctx, span := tracer.Start(ctx, "resque.job.perform",
			trace.WithAttributes(attrs...),
			trace.WithSpanKind(trace.SpanKindConsumer),
		)
		defer span.End()

		err := next(ctx)
		span.SetAttributes(attribute.String("resque.job.outcome", Outcome(err)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}
}
