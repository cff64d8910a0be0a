package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/resque/job"
	"github.com/xraph/resque/middleware"
)

func newTestJob() *job.Job {
	return &job.Job{
		Queue:  "default",
		Worker: "host:42:default",
		Payload: job.Payload{
			Class: "send-email",
			ID:    "b1946ac92492d2347c6235b4d2611184",
		},
	}
}

func TestChain_ExecutionOrder(t *testing.T) {
	var order []string

	mw1 := func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
		order = append(order, "mw1-before")
		err := next(ctx)
		order = append(order, "mw1-after")
		return err
	}
	mw2 := func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
		order = append(order, "mw2-before")
		err := next(ctx)
		order = append(order, "mw2-after")
		return err
	}

	chain := middleware.Chain(mw1, mw2)
	err := chain(context.Background(), newTestJob(), func(_ context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"mw1-before", "mw2-before", "handler", "mw2-after", "mw1-after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}
	for i, want := range expected {
		if order[i] != want {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want)
		}
	}
}

func TestChain_Empty(t *testing.T) {
	called := false
	err := middleware.Chain()(context.Background(), newTestJob(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called with empty chain")
	}
}

func TestChain_ShortCircuit(t *testing.T) {
	stop := errors.New("stop")
	block := func(context.Context, *job.Job, middleware.Handler) error { return stop }

	called := false
	err := middleware.Chain(block)(context.Background(), newTestJob(), func(_ context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, stop) || called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
}

func TestRecover_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	mw := middleware.Recover(logger)

	err := mw(context.Background(), newTestJob(), func(_ context.Context) error {
		panic("test panic")
	})
	if !errors.Is(err, middleware.ErrPanic) {
		t.Fatalf("err = %v, want ErrPanic", err)
	}
	if got := err.Error(); got != "resque/middleware: panic in job send-email: test panic" {
		t.Errorf("unexpected error message: %q", got)
	}
	if !strings.Contains(buf.String(), "job performer panicked") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	mw := middleware.Recover(slog.Default())
	called := false
	err := mw(context.Background(), newTestJob(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
}

func TestRecover_FailsJobThroughService(t *testing.T) {
	reg := job.NewRegistry()
	reg.RegisterFunc("Panicky", func(context.Context, *job.Job) (any, error) {
		panic("kaboom")
	})
	svc := job.NewService(nil, nil, nil, reg, job.WithMiddleware(middleware.Recover(slog.Default())))

	r := svc.NewJob("default", job.Payload{Class: "Panicky"}).Perform(context.Background())
	if r.Outcome != job.Failed || r.Err == nil || !strings.Contains(r.Err.Error(), "kaboom") {
		t.Fatalf("Perform = %+v", r)
	}
}

func TestLogging_Success(t *testing.T) {
	var buf bytes.Buffer
	mw := middleware.Logging(slog.New(slog.NewTextHandler(&buf, nil)))

	err := mw(context.Background(), newTestJob(), func(_ context.Context) error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"job started", "job completed", "class=send-email", "queue=default", "token=b1946ac92492d2347c6235b4d2611184"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogging_Error(t *testing.T) {
	var buf bytes.Buffer
	mw := middleware.Logging(slog.New(slog.NewTextHandler(&buf, nil)))
	want := errors.New("fail")

	err := mw(context.Background(), newTestJob(), func(_ context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if !strings.Contains(buf.String(), "job failed") {
		t.Errorf("failure not logged: %s", buf.String())
	}
}
