// Package middleware provides composable middleware wrapped around a
// performer call.
//
// Middleware are installed on a job.Service with job.WithMiddleware or
// Service.Use and run inside beforePerform/afterPerform, around SetUp,
// Perform and TearDown. The first middleware in a chain is the outermost
// wrapper.
//
//	// logging → recover → performer
//	svc.Use(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] logs class, queue and token with the elapsed time
//   - [Recover] turns a panicking performer into a failed job
//   - [Tracing] wraps execution in an OpenTelemetry span
//   - [Metrics] records per-class duration and outcome counters
//
// Tracing and Metrics classify each call with [Outcome]. Install them
// outside Recover so a panic reaches them as an error:
//
//	svc.Use(middleware.Tracing(), middleware.Metrics(), middleware.Recover(logger))
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, j *job.Job, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
package middleware
