package event

import (
	"context"
	"log/slog"
	"sync"
)

// Listener handles a triggered event. Arguments are passed positionally
// in the order documented on each Name.
type Listener func(ctx context.Context, args ...any) error

// Handle identifies one registration so it can be removed.
type Handle struct {
	name Name
	id   uint64
}

// Name returns the event the handle is registered for.
func (h Handle) Name() Name { return h.name }

type entry struct {
	id uint64
	fn Listener
}

// Dispatcher maps event names to ordered listeners. It is safe for
// concurrent use; listeners added during a Trigger take effect on the
// next Trigger.
type Dispatcher struct {
	mu        sync.RWMutex
	seq       uint64
	listeners map[Name][]entry
	logger    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		listeners: make(map[Name][]entry),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Listen appends fn to the listeners of name.
func (d *Dispatcher) Listen(name Name, fn Listener) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.listeners[name] = append(d.listeners[name], entry{id: d.seq, fn: fn})
	return Handle{name: name, id: d.seq}
}

// StopListening removes the registration behind h. It reports whether a
// listener was removed.
func (d *Dispatcher) StopListening(h Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	entries := d.listeners[h.name]
	for i, e := range entries {
		if e.id != h.id {
			continue
		}
		d.listeners[h.name] = append(entries[:i:i], entries[i+1:]...)
		if len(d.listeners[h.name]) == 0 {
			delete(d.listeners, h.name)
		}
		return true
	}
	return false
}

// ClearListeners removes every listener for every event.
func (d *Dispatcher) ClearListeners() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = make(map[Name][]entry)
}

// Count returns the number of listeners registered for name.
func (d *Dispatcher) Count(name Name) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[name])
}

// Trigger invokes every listener of name in registration order. The first
// listener error is returned unchanged and the remaining listeners are
// not called.
func (d *Dispatcher) Trigger(ctx context.Context, name Name, args ...any) error {
	d.mu.RLock()
	entries := d.listeners[name]
	d.mu.RUnlock()

	for _, e := range entries {
		if err := e.fn(ctx, args...); err != nil {
			d.logger.Debug("event listener returned error",
				slog.String("event", string(name)),
				slog.String("error", err.Error()),
			)
			return err
		}
	}
	return nil
}
