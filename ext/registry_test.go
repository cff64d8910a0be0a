package ext_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/resque/broker"
	"github.com/xraph/resque/event"
	"github.com/xraph/resque/ext"
	"github.com/xraph/resque/job"
	"github.com/xraph/resque/status"
	"github.com/xraph/resque/store/memory"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook.
type allHooksExt struct {
	name  string
	calls *[]string
}

func (e *allHooksExt) Name() string { return e.name }

func (e *allHooksExt) record(s string) { *e.calls = append(*e.calls, e.name+":"+s) }

func (e *allHooksExt) OnJobEnqueued(_ context.Context, queue, class string, _ any) error {
	e.record("OnJobEnqueued(" + queue + "," + class + ")")
	return nil
}

func (e *allHooksExt) OnJobStarted(context.Context, *job.Job) error {
	e.record("OnJobStarted")
	return nil
}

func (e *allHooksExt) OnJobCompleted(context.Context, *job.Job) error {
	e.record("OnJobCompleted")
	return nil
}

func (e *allHooksExt) OnJobFailed(context.Context, *job.Job, error) error {
	e.record("OnJobFailed")
	return nil
}

func (e *allHooksExt) OnWorkerStarted(_ context.Context, id string) error {
	e.record("OnWorkerStarted(" + id + ")")
	return nil
}

// failedOnlyExt implements only JobFailed.
type failedOnlyExt struct{ failed int }

func (e *failedOnlyExt) Name() string { return "failed-only" }

func (e *failedOnlyExt) OnJobFailed(context.Context, *job.Job, error) error {
	e.failed++
	return nil
}

// errorExt returns an error from its hook.
type errorExt struct{}

func (errorExt) Name() string { return "error-ext" }

func (errorExt) OnJobStarted(context.Context, *job.Job) error { return errors.New("hook broke") }

type workerID string

func (w workerID) String() string { return string(w) }

func fireAll(t *testing.T, d *event.Dispatcher) {
	t.Helper()
	ctx := context.Background()
	j := &job.Job{Queue: "q", Payload: job.Payload{Class: "C"}}
	for _, fire := range []func() error{
		func() error { return d.Trigger(ctx, event.AfterEnqueue, "C", nil, "q") },
		func() error { return d.Trigger(ctx, event.BeforePerform, j) },
		func() error { return d.Trigger(ctx, event.Performing, j) },
		func() error { return d.Trigger(ctx, event.AfterPerform, j) },
		func() error { return d.Trigger(ctx, event.OnFailure, errors.New("x"), j) },
		func() error { return d.Trigger(ctx, event.BeforeFirstFork, workerID("host:1:q")) },
	} {
		if err := fire(); err != nil {
			t.Fatalf("trigger: %v", err)
		}
	}
}

func TestRegistry_AllHooksFire(t *testing.T) {
	d := event.NewDispatcher()
	r := ext.NewRegistry(d, slog.Default())
	var calls []string
	r.Register(&allHooksExt{name: "all", calls: &calls})

	fireAll(t, d)

	want := []string{
		"all:OnJobEnqueued(q,C)",
		"all:OnJobStarted",
		"all:OnJobCompleted",
		"all:OnJobFailed",
		"all:OnWorkerStarted(host:1:q)",
	}
	if strings.Join(calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestRegistry_OnlyImplementorsSubscribe(t *testing.T) {
	d := event.NewDispatcher()
	r := ext.NewRegistry(d, nil)
	e := &failedOnlyExt{}
	r.Register(e)

	if d.Count(event.OnFailure) != 1 || d.Count(event.BeforePerform) != 0 {
		t.Fatalf("listener counts: onFailure=%d beforePerform=%d", d.Count(event.OnFailure), d.Count(event.BeforePerform))
	}
	fireAll(t, d)
	if e.failed != 1 {
		t.Errorf("failed = %d, want 1", e.failed)
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	var buf bytes.Buffer
	d := event.NewDispatcher()
	r := ext.NewRegistry(d, slog.New(slog.NewTextHandler(&buf, nil)))
	r.Register(errorExt{})

	err := d.Trigger(context.Background(), event.Performing, &job.Job{})
	if err != nil {
		t.Fatalf("hook error leaked into dispatcher: %v", err)
	}
	if !strings.Contains(buf.String(), "hook broke") || !strings.Contains(buf.String(), "error-ext") {
		t.Errorf("hook error not logged: %s", buf.String())
	}
}

func TestRegistry_MultipleExtensionsOrderPreserved(t *testing.T) {
	d := event.NewDispatcher()
	r := ext.NewRegistry(d, nil)
	var calls []string
	r.Register(&allHooksExt{name: "first", calls: &calls})
	r.Register(&allHooksExt{name: "second", calls: &calls})

	_ = d.Trigger(context.Background(), event.AfterPerform, &job.Job{})
	if len(calls) != 2 || calls[0] != "first:OnJobCompleted" || calls[1] != "second:OnJobCompleted" {
		t.Errorf("calls = %v", calls)
	}
	if got := len(r.Extensions()); got != 2 {
		t.Errorf("Extensions() = %d", got)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	d := event.NewDispatcher()
	r := ext.NewRegistry(d, nil)
	var calls []string
	r.Register(&allHooksExt{name: "all", calls: &calls})

	if !r.Unregister("all") {
		t.Fatal("Unregister returned false")
	}
	if r.Unregister("all") {
		t.Error("second Unregister should report false")
	}
	fireAll(t, d)
	if len(calls) != 0 || len(r.Extensions()) != 0 {
		t.Errorf("calls after unregister = %v", calls)
	}
}

func TestRegistry_EmptyRegistryNoOp(t *testing.T) {
	d := event.NewDispatcher()
	_ = ext.NewRegistry(d, nil)
	fireAll(t, d)
}

func TestRegistry_DoesNotBlockDontPerform(t *testing.T) {
	d := event.NewDispatcher()
	job.OnBeforePerform(d, func(context.Context, *job.Job) error { return event.ErrDontPerform })
	r := ext.NewRegistry(d, nil)
	var calls []string
	r.Register(&allHooksExt{name: "all", calls: &calls})

	err := d.Trigger(context.Background(), event.BeforePerform, &job.Job{})
	if !errors.Is(err, event.ErrDontPerform) {
		t.Fatalf("err = %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("later listeners must not run after an abort: %v", calls)
	}
}

func TestRegistry_SkippedJobIsNotStarted(t *testing.T) {
	b := broker.New(memory.NewServer().Dialer())
	t.Cleanup(func() { _ = b.Close() })
	d := event.NewDispatcher()
	reg := job.NewRegistry()
	reg.RegisterFunc("Report", func(context.Context, *job.Job) (any, error) { return nil, nil })
	svc := job.NewService(b, status.NewTracker(b), d, reg)

	r := ext.NewRegistry(d, slog.Default())
	var calls []string
	r.Register(&allHooksExt{name: "all", calls: &calls})

	veto := true
	job.OnBeforePerform(d, func(context.Context, *job.Job) error {
		if veto {
			return event.ErrDontPerform
		}
		return nil
	})

	ctx := context.Background()
	if res := svc.NewJob("reports", job.Payload{Class: "Report"}).Perform(ctx); res.Outcome != job.Skipped {
		t.Fatalf("Perform = %+v, want skipped", res)
	}
	if len(calls) != 0 {
		t.Errorf("hooks fired for a skipped job: %v", calls)
	}

	veto = false
	if res := svc.NewJob("reports", job.Payload{Class: "Report"}).Perform(ctx); res.Outcome != job.Completed {
		t.Fatalf("Perform = %+v, want completed", res)
	}
	want := "all:OnJobStarted|all:OnJobCompleted"
	if got := strings.Join(calls, "|"); got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}
