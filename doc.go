// Package resque is a Redis-backed background job queue compatible with
// the Resque key layout.
//
// Producers enqueue named job classes with JSON arguments onto named
// queues. Workers on any number of hosts poll those queues in order,
// perform each job through a registered performer and record the outcome
// in shared statistics, an optional per-job status and a failure log.
//
// # Quick Start
//
//	rq, err := resque.New(resque.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	defer rq.Close()
//
//	rq.Registry().RegisterFunc("SendEmail", sendEmail)
//	token, err := rq.Enqueue(ctx, "mail", "SendEmail", map[string]any{"to": "a@b.c"}, true)
//
//	w := rq.NewWorker([]string{"mail", "default"})
//	err = w.Run(ctx)
//
// # Architecture
//
// Every component talks to the store through a broker.Broker, which caches
// one connection per execution id. Lifecycle events flow through a single
// event.Dispatcher owned by the Resque value; extensions and metrics
// subscribe to it through the ext package.
package resque
