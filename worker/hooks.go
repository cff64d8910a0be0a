package worker

import (
	"context"

	"github.com/xraph/resque/event"
)

// OnBeforeFirstFork registers fn for beforeFirstFork, fired once when a
// worker starts its run loop.
func OnBeforeFirstFork(d *event.Dispatcher, fn func(ctx context.Context, w *Worker) error) event.Handle {
	return d.Listen(event.BeforeFirstFork, func(ctx context.Context, args ...any) error {
		var w *Worker
		if len(args) > 0 {
			w, _ = args[0].(*Worker)
		}
		return fn(ctx, w)
	})
}
