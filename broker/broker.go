// Package broker is the queue primitive layer: it selects the backend,
// hands out connections scoped to the caller's execution context, and
// implements push, pop and queue introspection over the store.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/xraph/resque/store"
)

// Key names shared by every component.
const (
	QueuesKey = "queues"
	queueKey  = "queue:"
)

// QueueKey returns the list key holding a queue's payloads.
func QueueKey(name string) string { return queueKey + name }

// Option configures a Broker.
type Option func(*Broker)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Broker) { b.logger = l }
}

// WithNamespace sets the key prefix. Default: "resque".
func WithNamespace(ns string) Option {
	return func(b *Broker) { b.namespace = ns }
}

// WithBackend sets the initial backend.
func WithBackend(be store.Backend) Option {
	return func(b *Broker) { b.backend = be }
}

// Broker owns the connection cache and the queue primitives. Connections
// are opened lazily and cached per execution context id: a caller whose
// id differs from every cached connection gets a fresh one.
type Broker struct {
	dial      store.Dialer
	logger    *slog.Logger
	namespace string

	mu      sync.Mutex
	backend store.Backend
	conns   map[string]*store.Namespaced
}

// New creates a Broker. No I/O happens until the first call that needs a
// connection.
func New(dial store.Dialer, opts ...Option) *Broker {
	b := &Broker{
		dial:      dial,
		logger:    slog.Default(),
		namespace: store.DefaultNamespace,
		conns:     make(map[string]*store.Namespaced),
	}
	b.backend, _ = store.ParseBackend("", 0)
	for _, o := range opts {
		o(b)
	}
	return b
}

// SetBackend replaces the connection target and closes every cached
// connection. The next call reconnects.
func (b *Broker) SetBackend(be store.Backend) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backend = be
	b.dropLocked()
}

// Backend returns the current connection target.
func (b *Broker) Backend() store.Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.backend
}

// SetNamespace changes the key prefix. Cached connections are dropped so
// every later call uses the new prefix.
func (b *Broker) SetNamespace(ns string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.namespace = ns
	b.dropLocked()
}

// Namespace returns the key prefix.
func (b *Broker) Namespace() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return store.NormalizeNamespace(b.namespace)
}

// Connection returns the live connection for the calling execution
// context, dialing one if needed.
func (b *Broker) Connection(ctx context.Context) (store.Store, error) {
	id := ExecutionID(ctx)

	b.mu.Lock()
	if c, ok := b.conns[id]; ok {
		b.mu.Unlock()
		return c, nil
	}
	be, ns := b.backend, b.namespace
	b.mu.Unlock()

	raw, err := b.dial(ctx, be)
	if err != nil {
		return nil, store.Wrap("dial", be.String(), err)
	}
	c := store.WithNamespace(raw, ns)

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.conns[id]; ok {
		_ = raw.Close()
		return existing, nil
	}
	b.conns[id] = c
	b.logger.Debug("store connection opened",
		slog.String("execution_id", id),
		slog.String("backend", be.String()),
	)
	return c, nil
}

// Release closes and forgets the connection of the calling execution
// context. It is a no-op when none is cached.
func (b *Broker) Release(ctx context.Context) error {
	id := ExecutionID(ctx)
	b.mu.Lock()
	c, ok := b.conns[id]
	delete(b.conns, id)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return c.Close()
}

// Close closes every cached connection.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropLocked()
}

func (b *Broker) dropLocked() error {
	var errs []error
	for id, c := range b.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(b.conns, id)
	}
	return errors.Join(errs...)
}

// ──────────────────────────────────────────────────
// Queue primitives
// ──────────────────────────────────────────────────

// Push registers queue in the known-queues set and appends the JSON
// encoding of item to its tail.
func (b *Broker) Push(ctx context.Context, queue string, item any) error {
	data, err := json.Marshal(item)
	if err != nil {
		return &store.Error{Op: "encode", Key: QueueKey(queue), Err: err}
	}
	c, err := b.Connection(ctx)
	if err != nil {
		return err
	}
	if err := c.SAdd(ctx, QueuesKey, queue); err != nil {
		return err
	}
	_, err = c.RPush(ctx, QueueKey(queue), string(data))
	return err
}

// Pop removes the head of queue and decodes it into dst. It reports false
// when the queue is empty. A payload that is not valid JSON for dst is
// returned as a *store.Error with Op "decode"; the item is gone from the
// queue either way.
func (b *Broker) Pop(ctx context.Context, queue string, dst any) (bool, error) {
	c, err := b.Connection(ctx)
	if err != nil {
		return false, err
	}
	raw, err := c.LPop(ctx, QueueKey(queue))
	if errors.Is(err, store.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, &store.Error{Op: "decode", Key: QueueKey(queue), Err: err}
	}
	return true, nil
}

// Size returns the number of pending items in queue.
func (b *Broker) Size(ctx context.Context, queue string) (int64, error) {
	c, err := b.Connection(ctx)
	if err != nil {
		return 0, err
	}
	return c.LLen(ctx, QueueKey(queue))
}

// Queues returns every queue that has ever been pushed to, sorted.
func (b *Broker) Queues(ctx context.Context) ([]string, error) {
	c, err := b.Connection(ctx)
	if err != nil {
		return nil, err
	}
	qs, err := c.SMembers(ctx, QueuesKey)
	if err != nil {
		return nil, err
	}
	slices.Sort(qs)
	return qs, nil
}
