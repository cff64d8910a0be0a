package job

import (
	"context"
	"encoding/json"
	"fmt"
)

// Options configures where and how a typed definition is enqueued.
type Options struct {
	// Queue is the queue name this job should be enqueued to.
	Queue string

	// Track requests status tracking.
	Track bool
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{Queue: "default"}
}

// Option is a functional option for configuring a job definition.
type Option func(*Options)

// WithQueue sets the queue name for the job.
func WithQueue(q string) Option {
	return func(o *Options) { o.Queue = q }
}

// WithTracking enables status tracking for every enqueue.
func WithTracking() Option {
	return func(o *Options) { o.Track = true }
}

// Definition is a typed job definition with a handler function.
// T is the argument type (must be JSON-serializable).
type Definition[T any] struct {
	// Class is the unique name for this job type.
	Class string

	// Handler processes the decoded arguments.
	Handler func(ctx context.Context, j *Job, args T) (any, error)

	// Opts configures queue and tracking.
	Opts Options
}

// NewDefinition creates a typed job definition.
func NewDefinition[T any](class string, handler func(ctx context.Context, j *Job, args T) (any, error), opts ...Option) *Definition[T] {
	def := &Definition[T]{
		Class:   class,
		Handler: handler,
		Opts:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&def.Opts)
	}
	return def
}

// RegisterDefinition registers a typed definition. The handler is wrapped
// in a performer that decodes the arguments into T first.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	r.RegisterFunc(def.Class, func(ctx context.Context, j *Job) (any, error) {
		var t T
		if len(j.Payload.Args) > 0 {
			if err := json.Unmarshal(j.Payload.Args, &t); err != nil {
				return nil, fmt.Errorf("unmarshal args for job %q: %w", def.Class, err)
			}
		}
		return def.Handler(ctx, j, t)
	})
}

// Args encodes args for def. Typed arguments may be structs; they are
// converted to their JSON object form.
func (def *Definition[T]) Args(args T) (json.RawMessage, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	return data, nil
}
