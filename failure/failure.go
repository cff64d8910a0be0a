// Package failure records failed jobs in the shared `failed` list so they
// can be inspected after the worker that ran them has moved on.
package failure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/resque/job"
	"github.com/xraph/resque/store"
)

// Key is the list holding failure records.
const Key = "failed"

// Record describes one failed job.
type Record struct {
	FailedAt  time.Time   `json:"failed_at"`
	Payload   job.Payload `json:"payload"`
	Exception string      `json:"exception"`
	Error     string      `json:"error"`
	Worker    string      `json:"worker"`
	Queue     string      `json:"queue"`
}

// NewRecord builds a record for j failing with err on worker.
func NewRecord(j *job.Job, err error, worker string, at time.Time) *Record {
	r := &Record{
		FailedAt: at.UTC(),
		Payload:  j.Payload,
		Worker:   worker,
		Queue:    j.Queue,
	}
	if err != nil {
		r.Exception = fmt.Sprintf("%T", err)
		r.Error = err.Error()
	}
	return r
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source used for FailedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// Log appends and reads failure records.
type Log struct {
	conns store.Connector
	now   func() time.Time
}

// NewLog creates a Log over conns.
func NewLog(conns store.Connector, opts ...Option) *Log {
	l := &Log{conns: conns, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Create records j failing with err on worker.
func (l *Log) Create(ctx context.Context, j *job.Job, err error, worker string) error {
	return l.Push(ctx, NewRecord(j, err, worker, l.now()))
}

// Push appends r to the failure list.
func (l *Log) Push(ctx context.Context, r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return &store.Error{Op: "encode", Key: Key, Err: err}
	}
	c, err := l.conns.Connection(ctx)
	if err != nil {
		return err
	}
	_, err = c.RPush(ctx, Key, string(data))
	return err
}

// Count returns the number of failure records.
func (l *Log) Count(ctx context.Context) (int64, error) {
	c, err := l.conns.Connection(ctx)
	if err != nil {
		return 0, err
	}
	return c.LLen(ctx, Key)
}

// List returns the records between start and stop inclusive. Negative
// indexes count from the end, so List(ctx, 0, -1) returns everything.
func (l *Log) List(ctx context.Context, start, stop int64) ([]*Record, error) {
	c, err := l.conns.Connection(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.LRange(ctx, Key, start, stop)
	if err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(raw))
	for _, item := range raw {
		r := new(Record)
		if err := json.Unmarshal([]byte(item), r); err != nil {
			return nil, &store.Error{Op: "decode", Key: Key, Err: err}
		}
		out = append(out, r)
	}
	return out, nil
}

// Clear deletes every failure record.
func (l *Log) Clear(ctx context.Context) error {
	c, err := l.conns.Connection(ctx)
	if err != nil {
		return err
	}
	return c.Del(ctx, Key)
}
