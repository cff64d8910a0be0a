package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/resque/job"
)

// ErrPanic wraps a value recovered from a panicking performer.
var ErrPanic = errors.New("resque/middleware: panic in job")

// Recover turns a panic below it into an ErrPanic error, so the job fails
// like any other. The panic value and stack are logged.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("job performer panicked",
				slog.String("job", j.String()),
				slog.String("worker", j.Worker),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w %s: %v", ErrPanic, j.Class(), r)
		}()
		return next(ctx)
	}
}
