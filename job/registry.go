package job

import (
	"context"
	"slices"
	"sync"
)

// Performer runs a job. The return value becomes Result.Value.
type Performer interface {
	Perform(ctx context.Context, j *Job) (any, error)
}

// SetUpper is implemented by performers needing preparation. SetUp runs
// before Perform; an error skips Perform and TearDown.
type SetUpper interface {
	SetUp(ctx context.Context, j *Job) error
}

// TearDowner is implemented by performers needing cleanup. TearDown runs
// after Perform whatever its outcome.
type TearDowner interface {
	TearDown(ctx context.Context, j *Job) error
}

// PerformerFunc adapts a function to Performer.
type PerformerFunc func(ctx context.Context, j *Job) (any, error)

// Perform implements Performer.
func (f PerformerFunc) Perform(ctx context.Context, j *Job) (any, error) { return f(ctx, j) }

// Factory creates a performer for one execution.
type Factory func() Performer

// Registry maps class names to performer factories.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register maps class to f, replacing any earlier registration.
func (r *Registry) Register(class string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[class] = f
}

// RegisterFunc maps class to a stateless function performer.
func (r *Registry) RegisterFunc(class string, fn func(ctx context.Context, j *Job) (any, error)) {
	p := PerformerFunc(fn)
	r.Register(class, func() Performer { return p })
}

// Lookup returns the factory for class.
func (r *Registry) Lookup(class string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[class]
	return f, ok
}

// Names returns all registered classes, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// instance resolves class to a fresh performer.
func (r *Registry) instance(class string) (Performer, error) {
	f, ok := r.Lookup(class)
	if !ok || f == nil {
		return nil, &ConfigError{Class: class, Err: ErrUnknownClass}
	}
	p := f()
	if p == nil {
		return nil, &ConfigError{Class: class, Err: ErrNoPerformer}
	}
	return p, nil
}
