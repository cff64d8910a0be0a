package job

import "context"

// Handler runs the rest of a performer call.
type Handler func(ctx context.Context) error

// Middleware wraps a performer call for j. It calls next to continue, or
// returns without calling it to fail the job early.
type Middleware func(ctx context.Context, j *Job, next Handler) error

// Chain nests mws so that mws[0] runs first and the performer last.
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, j *Job, next Handler) error {
		return chainFrom(mws, j, next)(ctx)
	}
}

func chainFrom(mws []Middleware, j *Job, last Handler) Handler {
	if len(mws) == 0 {
		return last
	}
	rest := chainFrom(mws[1:], j, last)
	return func(ctx context.Context) error {
		return mws[0](ctx, j, rest)
	}
}
