// Package stat keeps named integer counters in the store under
// "stat:{name}". The worker maintains "processed" and "failed" globally
// and "processed:{worker}" / "failed:{worker}" per worker.
package stat

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/xraph/resque/store"
)

// Counter names used by the worker.
const (
	Processed = "processed"
	Failed    = "failed"
)

// Key returns the store key of the counter name.
func Key(name string) string { return "stat:" + name }

// Scoped returns the per-worker variant of a counter name.
func Scoped(name, workerID string) string { return name + ":" + workerID }

// Counter reads and writes statistics counters.
type Counter struct {
	conns store.Connector
}

// New creates a Counter over conns.
func New(conns store.Connector) *Counter {
	return &Counter{conns: conns}
}

// Incr increments name by by and returns the new value.
func (c *Counter) Incr(ctx context.Context, name string, by int64) (int64, error) {
	s, err := c.conns.Connection(ctx)
	if err != nil {
		return 0, err
	}
	return s.IncrBy(ctx, Key(name), by)
}

// Decr decrements name by by and returns the new value.
func (c *Counter) Decr(ctx context.Context, name string, by int64) (int64, error) {
	s, err := c.conns.Connection(ctx)
	if err != nil {
		return 0, err
	}
	return s.DecrBy(ctx, Key(name), by)
}

// Get returns the value of name, or 0 when it has never been set.
func (c *Counter) Get(ctx context.Context, name string) (int64, error) {
	s, err := c.conns.Connection(ctx)
	if err != nil {
		return 0, err
	}
	v, err := s.Get(ctx, Key(name))
	if errors.Is(err, store.ErrNil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &store.Error{Op: "decode", Key: Key(name), Err: fmt.Errorf("not an integer: %q", v)}
	}
	return n, nil
}

// Clear deletes name.
func (c *Counter) Clear(ctx context.Context, name string) error {
	s, err := c.conns.Connection(ctx)
	if err != nil {
		return err
	}
	return s.Del(ctx, Key(name))
}
