package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xraph/resque/job"
)

type emailArgs struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := job.NewRegistry()
	noop := func(context.Context, *job.Job) (any, error) { return nil, nil }
	r.RegisterFunc("b", noop)
	r.RegisterFunc("a", noop)

	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v", names)
	}
	if _, ok := r.Lookup("c"); ok {
		t.Error("Lookup of unregistered class should fail")
	}
}

func TestRegistry_FreshPerformerPerExecution(t *testing.T) {
	env := setup(t)
	created := 0
	env.reg.Register("Counter", func() job.Performer {
		created++
		return job.PerformerFunc(func(context.Context, *job.Job) (any, error) { return created, nil })
	})

	for range 3 {
		env.svc.NewJob("q", job.Payload{Class: "Counter"}).Perform(context.Background())
	}
	if created != 3 {
		t.Errorf("factory called %d times, want 3", created)
	}
}

func TestRegisterDefinition(t *testing.T) {
	env := setup(t)

	var got emailArgs
	def := job.NewDefinition("SendEmail", func(_ context.Context, _ *job.Job, in emailArgs) (any, error) {
		got = in
		return "sent", nil
	}, job.WithQueue("mail"), job.WithTracking())

	if def.Opts.Queue != "mail" || !def.Opts.Track {
		t.Fatalf("Opts = %+v", def.Opts)
	}
	job.RegisterDefinition(env.reg, def)

	args, err := def.Args(emailArgs{To: "alice@example.com", Subject: "Hello"})
	if err != nil {
		t.Fatalf("Args: %v", err)
	}
	r := env.svc.NewJob("mail", job.Payload{Class: "SendEmail", Args: args}).Perform(context.Background())
	if r.Outcome != job.Completed || r.Value != "sent" {
		t.Fatalf("Perform = %+v", r)
	}
	if got.To != "alice@example.com" || got.Subject != "Hello" {
		t.Errorf("handler got %+v", got)
	}
}

func TestRegisterDefinition_BadArgs(t *testing.T) {
	env := setup(t)
	def := job.NewDefinition("SendEmail", func(context.Context, *job.Job, emailArgs) (any, error) {
		return nil, nil
	})
	job.RegisterDefinition(env.reg, def)

	r := env.svc.NewJob("default", job.Payload{Class: "SendEmail", Args: json.RawMessage(`[1,2]`)}).Perform(context.Background())
	if r.Outcome != job.Failed || r.Err == nil {
		t.Fatalf("Perform = %+v, want failure on undecodable args", r)
	}
	var cfg *job.ConfigError
	if errors.As(r.Err, &cfg) {
		t.Error("argument errors are execution errors, not config errors")
	}
}
