// Package status tracks the state of individual jobs by token. A record
// lives at "job:{token}:status" with a bounded lifetime, independently of
// the queue entry.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/xraph/resque/store"
)

// Status is the state of a tracked job. The numeric values match the
// codes written by other Resque clients.
type Status int

const (
	// Absent means the job was never tracked, or tracking expired or
	// was stopped.
	Absent Status = 0
	// Waiting means the job is queued.
	Waiting Status = 1
	// Running means a worker has claimed the job.
	Running Status = 2
	// Failed means the job ended with an error.
	Failed Status = 3
	// Complete means the job ended successfully or was skipped.
	Complete Status = 4
)

// DefaultRetention is how long a status record survives its last write.
const DefaultRetention = 24 * time.Hour

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Running:
		return "running"
	case Failed:
		return "failed"
	case Complete:
		return "complete"
	default:
		return "absent"
	}
}

// Terminal reports whether s is Failed or Complete.
func (s Status) Terminal() bool { return s == Failed || s == Complete }

// Parse converts a status name or numeric code to a Status.
func Parse(v string) (Status, bool) {
	if n, err := strconv.Atoi(v); err == nil && n >= int(Absent) && n <= int(Complete) {
		return Status(n), true
	}
	for _, s := range []Status{Absent, Waiting, Running, Failed, Complete} {
		if strings.EqualFold(v, s.String()) {
			return s, true
		}
	}
	return Absent, false
}

// Key returns the store key of token's status record.
func Key(token string) string { return "job:" + token + ":status" }

// record is the stored form.
type record struct {
	Status  Status `json:"status"`
	Updated int64  `json:"updated"`
	Started int64  `json:"started,omitempty"`
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRetention sets how long records live after each write.
func WithRetention(d time.Duration) Option {
	return func(t *Tracker) { t.retention = d }
}

// WithClock sets the time source for the updated timestamp.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker reads and writes job status records.
type Tracker struct {
	conns     store.Connector
	retention time.Duration
	now       func() time.Time
}

// NewTracker creates a Tracker over conns.
func NewTracker(conns store.Connector, opts ...Option) *Tracker {
	t := &Tracker{conns: conns, retention: DefaultRetention, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Retention returns the configured record lifetime.
func (t *Tracker) Retention() time.Duration { return t.retention }

// Create starts tracking token in the Waiting state.
func (t *Tracker) Create(ctx context.Context, token string) error {
	now := t.now().Unix()
	return t.write(ctx, token, record{Status: Waiting, Updated: now, Started: now})
}

// Update overwrites the state of token and refreshes its lifetime. It is
// a no-op when token is not being tracked.
func (t *Tracker) Update(ctx context.Context, token string, s Status) error {
	tracking, err := t.IsTracking(ctx, token)
	if err != nil || !tracking {
		return err
	}
	return t.write(ctx, token, record{Status: s, Updated: t.now().Unix()})
}

// Get returns the state of token, or Absent when it is not tracked.
func (t *Tracker) Get(ctx context.Context, token string) (Status, error) {
	if token == "" {
		return Absent, nil
	}
	c, err := t.conns.Connection(ctx)
	if err != nil {
		return Absent, err
	}
	raw, err := c.Get(ctx, Key(token))
	if errors.Is(err, store.ErrNil) {
		return Absent, nil
	}
	if err != nil {
		return Absent, err
	}
	return decode(token, raw)
}

// Stop deletes the record of token immediately.
func (t *Tracker) Stop(ctx context.Context, token string) error {
	c, err := t.conns.Connection(ctx)
	if err != nil {
		return err
	}
	return c.Del(ctx, Key(token))
}

// IsTracking reports whether a record exists for token, whatever its
// state.
func (t *Tracker) IsTracking(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	c, err := t.conns.Connection(ctx)
	if err != nil {
		return false, err
	}
	return c.Exists(ctx, Key(token))
}

func (t *Tracker) write(ctx context.Context, token string, r record) error {
	c, err := t.conns.Connection(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.Set(ctx, Key(token), string(data), t.retention)
}

// decode accepts the JSON record and the bare numeric form.
func decode(token, raw string) (Status, error) {
	var r record
	if err := json.Unmarshal([]byte(raw), &r); err == nil {
		return r.Status, nil
	}
	if s, ok := Parse(raw); ok {
		return s, nil
	}
	return Absent, &store.Error{Op: "decode", Key: Key(token), Err: errors.New("unrecognised status record")}
}
