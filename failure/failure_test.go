package failure_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/xraph/resque/failure"
	"github.com/xraph/resque/job"
	"github.com/xraph/resque/store"
	"github.com/xraph/resque/store/memory"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "took too long" }

func newLog(t *testing.T, now time.Time) (*failure.Log, *memory.Conn) {
	t.Helper()
	conn := memory.NewServer().Dial(0)
	t.Cleanup(func() { _ = conn.Close() })
	return failure.NewLog(store.Static{Store: conn}, failure.WithClock(func() time.Time { return now })), conn
}

func TestLog_CreateAndList(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	log, _ := newLog(t, now)
	ctx := context.Background()

	j := &job.Job{Queue: "jobs", Payload: job.Payload{Class: "Mail", Args: json.RawMessage(`{"to":"a"}`), ID: "abc"}}
	if err := log.Create(ctx, j, timeoutError{}, "host:1:jobs"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := log.Create(ctx, j, errors.New("second"), "host:1:jobs"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := log.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v; want 2", n, err)
	}

	records, err := log.List(ctx, 0, -1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List returned %d records", len(records))
	}
	r := records[0]
	if !r.FailedAt.Equal(now) {
		t.Errorf("FailedAt = %v, want %v", r.FailedAt, now)
	}
	if r.Exception != "failure_test.timeoutError" || r.Error != "took too long" {
		t.Errorf("exception = %q, error = %q", r.Exception, r.Error)
	}
	if r.Worker != "host:1:jobs" || r.Queue != "jobs" {
		t.Errorf("worker = %q, queue = %q", r.Worker, r.Queue)
	}
	if r.Payload.Class != "Mail" || r.Payload.ID != "abc" || string(r.Payload.Args) != `{"to":"a"}` {
		t.Errorf("payload = %+v", r.Payload)
	}
	if records[1].Error != "second" {
		t.Errorf("records out of order: %+v", records[1])
	}
}

func TestLog_Clear(t *testing.T) {
	log, _ := newLog(t, time.Now())
	ctx := context.Background()

	_ = log.Create(ctx, &job.Job{Queue: "q", Payload: job.Payload{Class: "X"}}, errors.New("x"), "w")
	if err := log.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := log.Count(ctx); n != 0 {
		t.Errorf("Count after Clear = %d", n)
	}
}

func TestLog_CorruptRecord(t *testing.T) {
	log, conn := newLog(t, time.Now())
	ctx := context.Background()
	_, _ = conn.RPush(ctx, failure.Key, "not json")

	_, err := log.List(ctx, 0, -1)
	var se *store.Error
	if !errors.As(err, &se) || se.Op != "decode" {
		t.Fatalf("List err = %v, want decode store error", err)
	}
}
