// Package worker implements the polling worker: it reserves jobs from an
// ordered list of queues, runs each one in an isolated task with its own
// store connection, and keeps the shared worker registry, "working on"
// records and statistics up to date.
//
// A worker is identified as {host}:{pid}:{queue1,queue2,...}. The queue
// list is polled in strict precedence order every cycle; "*" means every
// known queue, re-read each cycle and polled in sorted order.
//
//	w := worker.New(b, svc, []string{"high", "low"}, worker.WithLogger(logger))
//	stop := w.HandleSignals()
//	defer stop()
//	err := w.Run(ctx)
//
// Lifecycle events fired on the job service's dispatcher:
// beforeFirstFork(worker) once in Run, beforeFork(job) in the poll loop,
// afterFork(job) inside the task, and onFailure(err, job) whenever a job
// is recorded as failed.
package worker
