package resque

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/xraph/resque/broker"
	"github.com/xraph/resque/event"
	"github.com/xraph/resque/ext"
	"github.com/xraph/resque/failure"
	"github.com/xraph/resque/job"
	"github.com/xraph/resque/stat"
	"github.com/xraph/resque/status"
	"github.com/xraph/resque/store"
	"github.com/xraph/resque/store/redis"
	"github.com/xraph/resque/worker"
)

// Resque owns the broker, the event dispatcher and the job service, and
// builds workers that share them.
//
// Create one with New() and functional options.
type Resque struct {
	config Config
	logger *slog.Logger
	dialer store.Dialer

	broker   *broker.Broker
	events   *event.Dispatcher
	registry *job.Registry
	tracker  *status.Tracker
	jobs     *job.Service
	exts     *ext.Registry
	stats    *stat.Counter
	failures *failure.Log

	middleware []job.Middleware
	pending    []ext.Extension
	workerOpts []worker.Option
}

// New creates a Resque instance. No connection is made until the first
// operation that needs one. Without WithDialer the store is Redis.
func New(opts ...Option) (*Resque, error) {
	r := &Resque{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	be, err := store.ParseBackend(r.config.Server, r.config.Database)
	if err != nil {
		return nil, err
	}
	if r.dialer == nil {
		r.dialer = redis.Dialer(redis.WithStoreOptions(redis.WithLogger(r.logger)))
	}
	if r.events == nil {
		r.events = event.NewDispatcher()
	}
	if r.registry == nil {
		r.registry = job.NewRegistry()
	}

	r.broker = broker.New(r.dialer,
		broker.WithLogger(r.logger),
		broker.WithBackend(be),
		broker.WithNamespace(r.config.Namespace),
	)
	var trackerOpts []status.Option
	if r.config.StatusRetention > 0 {
		trackerOpts = append(trackerOpts, status.WithRetention(r.config.StatusRetention))
	}
	r.tracker = status.NewTracker(r.broker, trackerOpts...)
	r.jobs = job.NewService(r.broker, r.tracker, r.events, r.registry,
		job.WithLogger(r.logger),
		job.WithMiddleware(r.middleware...),
	)
	r.stats = stat.New(r.broker)
	r.failures = failure.NewLog(r.broker)

	r.exts = ext.NewRegistry(r.events, r.logger)
	for _, e := range r.pending {
		r.exts.Register(e)
	}
	r.pending = nil
	return r, nil
}

// Config returns a copy of the configuration.
func (r *Resque) Config() Config { return r.config }

// Logger returns the shared logger.
func (r *Resque) Logger() *slog.Logger { return r.logger }

// Broker returns the connection broker.
func (r *Resque) Broker() *broker.Broker { return r.broker }

// Events returns the event dispatcher.
func (r *Resque) Events() *event.Dispatcher { return r.events }

// Registry returns the job class registry.
func (r *Resque) Registry() *job.Registry { return r.registry }

// Jobs returns the job service.
func (r *Resque) Jobs() *job.Service { return r.jobs }

// Tracker returns the job status tracker.
func (r *Resque) Tracker() *status.Tracker { return r.tracker }

// Extensions returns the extension registry.
func (r *Resque) Extensions() *ext.Registry { return r.exts }

// Stats returns the statistics counter.
func (r *Resque) Stats() *stat.Counter { return r.stats }

// Failures returns the failure log.
func (r *Resque) Failures() *failure.Log { return r.failures }

// ──────────────────────────────────────────────────
// Backend selection
// ──────────────────────────────────────────────────

// SetBackend points the instance at a new server and closes every cached
// connection. Nothing is dialed until the next operation.
func (r *Resque) SetBackend(server string, db int) error {
	be, err := store.ParseBackend(server, db)
	if err != nil {
		return err
	}
	r.config.Server = server
	r.config.Database = db
	r.broker.SetBackend(be)
	r.logger.Debug("backend changed", slog.String("backend", be.String()))
	return nil
}

// SetNamespace changes the key prefix for every later operation.
func (r *Resque) SetNamespace(ns string) {
	r.config.Namespace = ns
	r.broker.SetNamespace(ns)
}

// Namespace returns the key prefix, without the trailing colon.
func (r *Resque) Namespace() string { return r.broker.Namespace() }

// ──────────────────────────────────────────────────
// Jobs
// ──────────────────────────────────────────────────

// Enqueue pushes a job of class onto queue and fires afterEnqueue. When
// track is set the job's status starts as Waiting and the returned token
// identifies it; otherwise the token is empty. A listener error is logged
// and does not undo the enqueue.
func (r *Resque) Enqueue(ctx context.Context, queue, class string, args any, track bool) (string, error) {
	token, err := r.jobs.Create(ctx, queue, class, args, track)
	if err != nil {
		return "", fmt.Errorf("resque: enqueue %s on %s: %w", class, queue, err)
	}
	if err := r.events.Trigger(ctx, event.AfterEnqueue, class, args, queue); err != nil {
		r.logger.Warn("afterEnqueue listener failed",
			slog.String("class", class),
			slog.String("queue", queue),
			slog.String("error", err.Error()),
		)
	}
	return token, nil
}

// EnqueueDefinition enqueues a typed job on the definition's queue, with
// tracking when the definition asks for it.
func EnqueueDefinition[T any](ctx context.Context, r *Resque, def *job.Definition[T], args T) (string, error) {
	raw, err := def.Args(args)
	if err != nil {
		return "", err
	}
	return r.Enqueue(ctx, def.Opts.Queue, def.Class, raw, def.Opts.Track)
}

// Reserve pops the next job from queue. Store and decode errors are
// logged and reported as no job.
func (r *Resque) Reserve(ctx context.Context, queue string) *job.Job {
	j, err := r.jobs.Reserve(ctx, queue)
	if err != nil {
		r.logger.Warn("reserve failed",
			slog.String("queue", queue),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return j
}

// Status returns the status of a tracked job, status.Absent when the token
// is unknown or expired.
func (r *Resque) Status(ctx context.Context, token string) (status.Status, error) {
	return r.tracker.Get(ctx, token)
}

// Size returns the number of pending jobs in queue.
func (r *Resque) Size(ctx context.Context, queue string) (int64, error) {
	return r.broker.Size(ctx, queue)
}

// Queues returns every known queue name.
func (r *Resque) Queues(ctx context.Context) ([]string, error) {
	return r.broker.Queues(ctx)
}

// ──────────────────────────────────────────────────
// Workers
// ──────────────────────────────────────────────────

// Workers returns the ids of every registered worker, sorted.
func (r *Resque) Workers(ctx context.Context) ([]string, error) {
	return worker.List(ctx, r.broker)
}

// NewWorker builds a worker sharing this instance's broker and job
// service. A nil queue list uses the configured queues. Options given here
// are applied after those from WithWorkerOptions.
func (r *Resque) NewWorker(queues []string, opts ...worker.Option) *worker.Worker {
	if queues == nil {
		queues = r.config.Queues
	}
	all := []worker.Option{worker.WithLogger(r.logger)}
	if r.config.Interval > 0 {
		all = append(all, worker.WithInterval(r.config.Interval))
	}
	all = append(all, r.workerOpts...)
	all = append(all, opts...)
	return worker.New(r.broker, r.jobs, slices.Clone(queues), all...)
}

// Close drops every cached store connection.
func (r *Resque) Close() error {
	return r.broker.Close()
}
