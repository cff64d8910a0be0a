package job

import (
	"context"

	"github.com/xraph/resque/event"
)

// Typed listener registration for the job lifecycle events.

func jobListener(fn func(context.Context, *Job) error) event.Listener {
	return func(ctx context.Context, args ...any) error {
		j, _ := argAt[*Job](args, 0)
		return fn(ctx, j)
	}
}

func argAt[T any](args []any, i int) (T, bool) {
	var zero T
	if i >= len(args) {
		return zero, false
	}
	v, ok := args[i].(T)
	return v, ok
}

// OnBeforePerform registers fn for beforePerform. Return
// event.ErrDontPerform to skip the job.
func OnBeforePerform(d *event.Dispatcher, fn func(ctx context.Context, j *Job) error) event.Handle {
	return d.Listen(event.BeforePerform, jobListener(fn))
}

// OnPerforming registers fn for performing. It never sees a job that a
// beforePerform listener skipped.
func OnPerforming(d *event.Dispatcher, fn func(ctx context.Context, j *Job) error) event.Handle {
	return d.Listen(event.Performing, jobListener(fn))
}

// OnAfterPerform registers fn for afterPerform.
func OnAfterPerform(d *event.Dispatcher, fn func(ctx context.Context, j *Job) error) event.Handle {
	return d.Listen(event.AfterPerform, jobListener(fn))
}

// OnBeforeFork registers fn for beforeFork.
func OnBeforeFork(d *event.Dispatcher, fn func(ctx context.Context, j *Job) error) event.Handle {
	return d.Listen(event.BeforeFork, jobListener(fn))
}

// OnAfterFork registers fn for afterFork.
func OnAfterFork(d *event.Dispatcher, fn func(ctx context.Context, j *Job) error) event.Handle {
	return d.Listen(event.AfterFork, jobListener(fn))
}

// OnFailure registers fn for onFailure.
func OnFailure(d *event.Dispatcher, fn func(ctx context.Context, err error, j *Job) error) event.Handle {
	return d.Listen(event.OnFailure, func(ctx context.Context, args ...any) error {
		err, _ := argAt[error](args, 0)
		j, _ := argAt[*Job](args, 1)
		return fn(ctx, err, j)
	})
}

// OnAfterEnqueue registers fn for afterEnqueue.
func OnAfterEnqueue(d *event.Dispatcher, fn func(ctx context.Context, class string, args any, queue string) error) event.Handle {
	return d.Listen(event.AfterEnqueue, func(ctx context.Context, a ...any) error {
		class, _ := argAt[string](a, 0)
		var args any
		if len(a) > 1 {
			args = a[1]
		}
		queue, _ := argAt[string](a, 2)
		return fn(ctx, class, args, queue)
	})
}
