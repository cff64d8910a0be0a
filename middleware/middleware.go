package middleware

import (
	"context"
	"errors"

	"github.com/xraph/resque/job"
)

// Handler is the terminal function that executes job logic.
type Handler = job.Handler

// Middleware wraps a Handler with cross-cutting logic.
type Middleware = job.Middleware

// Chain composes multiple middleware into a single Middleware.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → performer
func Chain(mws ...Middleware) Middleware {
	return job.Chain(mws...)
}

// Outcomes a performer call is classified into by Tracing and Metrics.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomePanicked  = "panicked"
	OutcomeCancelled = "cancelled"
)

// Outcome classifies the error returned below a middleware. Panics only
// show up as OutcomePanicked when Recover sits further in.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeCompleted
	case errors.Is(err, ErrPanic):
		return OutcomePanicked
	case errors.Is(err, context.Canceled):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}
