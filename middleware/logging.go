package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/resque/job"
)

// Logging returns middleware that logs job start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		attrs := []any{
			slog.String("class", j.Class()),
			slog.String("queue", j.Queue),
		}
		if token := j.Token(); token != "" {
			attrs = append(attrs, slog.String("token", token))
		}
		if j.Worker != "" {
			attrs = append(attrs, slog.String("worker", j.Worker))
		}
		logger.Info("job started", attrs...)

		start := time.Now()
		err := next(ctx)
		attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))

		if err != nil {
			logger.Error("job failed", append(attrs, slog.String("error", err.Error()))...)
		} else {
			logger.Info("job completed", attrs...)
		}
		return err
	}
}
