package resque

import (
	"log/slog"

	"github.com/xraph/resque/event"
	"github.com/xraph/resque/ext"
	"github.com/xraph/resque/job"
	"github.com/xraph/resque/store"
	"github.com/xraph/resque/worker"
)

// Option configures a Resque instance.
type Option func(*Resque) error

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(r *Resque) error {
		r.config = cfg
		return nil
	}
}

// WithServer sets the store address and database index.
func WithServer(server string, db int) Option {
	return func(r *Resque) error {
		r.config.Server = server
		r.config.Database = db
		return nil
	}
}

// WithNamespace sets the key prefix.
func WithNamespace(ns string) Option {
	return func(r *Resque) error {
		r.config.Namespace = ns
		return nil
	}
}

// WithQueues sets the default queue list for NewWorker.
func WithQueues(queues ...string) Option {
	return func(r *Resque) error {
		r.config.Queues = queues
		return nil
	}
}

// WithLogger sets the structured logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resque) error {
		r.logger = l
		return nil
	}
}

// WithDialer replaces the Redis dialer, typically with an in-memory
// server's dialer in tests.
func WithDialer(d store.Dialer) Option {
	return func(r *Resque) error {
		if d == nil {
			return ErrNoDialer
		}
		r.dialer = d
		return nil
	}
}

// WithRegistry uses an existing job registry.
func WithRegistry(reg *job.Registry) Option {
	return func(r *Resque) error {
		if reg == nil {
			return ErrNoRegistry
		}
		r.registry = reg
		return nil
	}
}

// WithEvents uses an existing event dispatcher.
func WithEvents(d *event.Dispatcher) Option {
	return func(r *Resque) error {
		r.events = d
		return nil
	}
}

// WithMiddleware wraps every performer call. The first middleware is the
// outermost.
func WithMiddleware(mws ...job.Middleware) Option {
	return func(r *Resque) error {
		r.middleware = append(r.middleware, mws...)
		return nil
	}
}

// WithExtension registers an extension once the instance is built.
func WithExtension(e ext.Extension) Option {
	return func(r *Resque) error {
		r.pending = append(r.pending, e)
		return nil
	}
}

// WithWorkerOptions adds options applied to every worker from NewWorker.
func WithWorkerOptions(opts ...worker.Option) Option {
	return func(r *Resque) error {
		r.workerOpts = append(r.workerOpts, opts...)
		return nil
	}
}
