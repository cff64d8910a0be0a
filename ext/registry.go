package ext

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/resque/event"
	"github.com/xraph/resque/job"
)

// Registry subscribes extensions to an event dispatcher. Each implemented
// hook becomes one listener; hook errors are logged and swallowed.
type Registry struct {
	events *event.Dispatcher
	logger *slog.Logger

	mu         sync.Mutex
	extensions []Extension
	handles    map[string][]event.Handle
}

// NewRegistry creates an extension registry over events.
func NewRegistry(events *event.Dispatcher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		events:  events,
		logger:  logger,
		handles: make(map[string][]event.Handle),
	}
}

// Register subscribes every hook e implements. Extensions are notified in
// registration order, after any listener registered before them.
func (r *Registry) Register(e Extension) {
	name := e.Name()
	var hs []event.Handle

	if h, ok := e.(JobEnqueued); ok {
		hs = append(hs, job.OnAfterEnqueue(r.events, func(ctx context.Context, class string, args any, queue string) error {
			r.logHookError("OnJobEnqueued", name, h.OnJobEnqueued(ctx, queue, class, args))
			return nil
		}))
	}
	if h, ok := e.(JobStarted); ok {
		hs = append(hs, job.OnPerforming(r.events, func(ctx context.Context, j *job.Job) error {
			r.logHookError("OnJobStarted", name, h.OnJobStarted(ctx, j))
			return nil
		}))
	}
	if h, ok := e.(JobCompleted); ok {
		hs = append(hs, job.OnAfterPerform(r.events, func(ctx context.Context, j *job.Job) error {
			r.logHookError("OnJobCompleted", name, h.OnJobCompleted(ctx, j))
			return nil
		}))
	}
	if h, ok := e.(JobFailed); ok {
		hs = append(hs, job.OnFailure(r.events, func(ctx context.Context, err error, j *job.Job) error {
			r.logHookError("OnJobFailed", name, h.OnJobFailed(ctx, j, err))
			return nil
		}))
	}
	if h, ok := e.(WorkerStarted); ok {
		hs = append(hs, r.events.Listen(event.BeforeFirstFork, func(ctx context.Context, args ...any) error {
			var id string
			if len(args) > 0 {
				id = fmt.Sprint(args[0])
			}
			r.logHookError("OnWorkerStarted", name, h.OnWorkerStarted(ctx, id))
			return nil
		}))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions = append(r.extensions, e)
	r.handles[name] = append(r.handles[name], hs...)
}

// Unregister removes every listener of the extension called name. It
// reports whether one was registered.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	hs, ok := r.handles[name]
	delete(r.handles, name)
	kept := r.extensions[:0]
	for _, e := range r.extensions {
		if e.Name() != name {
			kept = append(kept, e)
		}
	}
	r.extensions = kept
	r.mu.Unlock()

	for _, h := range hs {
		r.events.StopListening(h)
	}
	return ok
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Extension(nil), r.extensions...)
}

func (r *Registry) logHookError(hook, extName string, err error) {
	if err == nil {
		return
	}
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
