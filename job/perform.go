package job

import (
	"context"
	"errors"

	"github.com/xraph/resque/event"
)

// Perform runs the job: beforePerform, performing, performer resolution, SetUp,
// Perform and TearDown inside the middleware chain, then afterPerform.
// A beforePerform listener returning event.ErrDontPerform yields Skipped.
// Perform does not change the job's status.
func (j *Job) Perform(ctx context.Context) Result {
	j.result = j.perform(ctx)
	return j.result
}

func (j *Job) perform(ctx context.Context) Result {
	if j.svc == nil {
		return Fail(ErrNoService)
	}
	events := j.svc.events

	if err := events.Trigger(ctx, event.BeforePerform, j); err != nil {
		if errors.Is(err, event.ErrDontPerform) {
			return Skip()
		}
		return Fail(err)
	}
	if err := events.Trigger(ctx, event.Performing, j); err != nil {
		return Fail(err)
	}

	p, err := j.svc.registry.instance(j.Payload.Class)
	if err != nil {
		return Fail(err)
	}

	var value any
	terminal := func(ctx context.Context) (err error) {
		if su, ok := p.(SetUpper); ok {
			if err := su.SetUp(ctx, j); err != nil {
				return err
			}
		}
		if td, ok := p.(TearDowner); ok {
			defer func() {
				if tdErr := td.TearDown(ctx, j); tdErr != nil && err == nil {
					err = tdErr
				}
			}()
		}
		value, err = p.Perform(ctx, j)
		return err
	}

	if err := j.svc.chain()(ctx, j, terminal); err != nil {
		return Fail(err)
	}

	if err := events.Trigger(ctx, event.AfterPerform, j); err != nil {
		return Fail(err)
	}
	return Complete(value)
}
