package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xraph/resque/broker"
	"github.com/xraph/resque/event"
	"github.com/xraph/resque/job"
	"github.com/xraph/resque/stat"
	"github.com/xraph/resque/status"
)

// Reserve pops the first available job, checking queues in order. Store
// errors are logged and reported as no job.
func (w *Worker) Reserve(ctx context.Context) *job.Job {
	queues, err := w.Queues(ctx)
	if err != nil {
		w.logger.Warn("resolve queues failed", slog.String("error", err.Error()))
		return nil
	}
	for _, q := range queues {
		j, err := w.jobs.Reserve(ctx, q)
		if err != nil {
			w.logger.Warn("reserve failed",
				slog.String("queue", q),
				slog.String("error", err.Error()),
			)
			continue
		}
		if j != nil {
			j.Worker = w.ID()
			w.logger.Debug("job reserved",
				slog.String("queue", q),
				slog.String("job", j.String()),
			)
			return j
		}
	}
	return nil
}

// Work runs one poll iteration. It reports whether a job was processed.
// When paused or when no job is available it sleeps for interval.
func (w *Worker) Work(ctx context.Context, interval time.Duration) bool {
	if w.shutdown.Load() {
		return false
	}
	if w.Paused() {
		w.sleep(ctx, interval)
		return false
	}

	j := w.Reserve(ctx)
	if j == nil {
		w.sleep(ctx, interval)
		return false
	}

	w.process(ctx, j)
	return true
}

func (w *Worker) process(ctx context.Context, j *job.Job) {
	// The record must be cleared even if the job never starts.
	defer func() {
		if err := w.DoneWorking(context.WithoutCancel(ctx)); err != nil {
			w.logger.Error("clear working-on record failed",
				slog.String("worker", w.ID()),
				slog.String("error", err.Error()),
			)
		}
	}()

	if err := w.WorkingOn(ctx, j); err != nil {
		w.logger.Error("write working-on record failed",
			slog.String("worker", w.ID()),
			slog.String("error", err.Error()),
		)
	}

	if err := w.jobs.Events().Trigger(ctx, event.BeforeFork, j); err != nil {
		w.fail(context.WithoutCancel(ctx), j, err, w.ID())
		return
	}
	w.runTask(ctx, j)
}

// runTask performs j in its own goroutine and execution context, so the
// task dials its own store connection. The poll loop blocks until the
// task ends. A panic in the task is recorded as a failure.
func (w *Worker) runTask(ctx context.Context, j *job.Job) {
	execID := w.ID() + "#" + strconv.FormatUint(w.seq.Add(1), 10)
	taskCtx, cancel := context.WithCancel(broker.WithExecutionID(context.WithoutCancel(ctx), execID))
	defer cancel()

	w.mu.Lock()
	w.cancelJob = cancel
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.cancelJob = nil
		w.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if err := w.broker.Release(taskCtx); err != nil {
				w.logger.Debug("release task connection", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%w: %v", ErrTaskPanic, r)
				w.logger.Error("job task panicked",
					slog.String("job", j.String()),
					slog.Any("panic", r),
				)
				w.fail(context.WithoutCancel(taskCtx), j, err, w.ID())
			}
		}()
		w.Perform(taskCtx, j)
	}()
	<-done
}

// Perform fires afterFork, performs j and records the outcome: Completed
// sets status Complete and increments processed, Failed fires onFailure,
// sets status Failed, writes a failure record and increments failed.
// Skipped only sets status Complete.
func (w *Worker) Perform(ctx context.Context, j *job.Job) job.Result {
	bk := context.WithoutCancel(ctx)
	if err := w.jobs.Events().Trigger(ctx, event.AfterFork, j); err != nil {
		w.fail(bk, j, err, w.ID())
		return job.Fail(err)
	}

	r := j.Perform(ctx)
	switch r.Outcome {
	case job.Completed:
		w.setStatus(bk, j, status.Complete)
		w.incr(bk, stat.Processed, w.ID())
		w.logger.Info("job completed", slog.String("job", j.String()))
	case job.Skipped:
		w.setStatus(bk, j, status.Complete)
		w.logger.Info("job skipped", slog.String("job", j.String()))
	default:
		w.fail(bk, j, r.Err, w.ID())
	}
	return r
}

// fail records j as failed on behalf of workerID.
func (w *Worker) fail(ctx context.Context, j *job.Job, cause error, workerID string) {
	w.logger.Error("job failed",
		slog.String("job", j.String()),
		slog.String("worker", workerID),
		slog.String("error", errString(cause)),
	)
	if err := w.jobs.Events().Trigger(ctx, event.OnFailure, cause, j); err != nil {
		w.logger.Warn("onFailure listener failed", slog.String("error", err.Error()))
	}
	w.setStatus(ctx, j, status.Failed)
	if err := w.failures.Create(ctx, j, cause, workerID); err != nil {
		w.logger.Error("write failure record failed", slog.String("error", err.Error()))
	}
	w.incr(ctx, stat.Failed, workerID)
}

func (w *Worker) setStatus(ctx context.Context, j *job.Job, s status.Status) {
	if err := j.UpdateStatus(ctx, s); err != nil {
		w.logger.Error("update job status failed",
			slog.String("token", j.Token()),
			slog.String("status", s.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (w *Worker) incr(ctx context.Context, name, workerID string) {
	for _, key := range []string{name, stat.Scoped(name, workerID)} {
		if _, err := w.stats.Incr(ctx, key, 1); err != nil {
			w.logger.Error("increment stat failed",
				slog.String("stat", key),
				slog.String("error", err.Error()),
			)
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	case <-w.stopCh:
	}
}

// ──────────────────────────────────────────────────
// Run loop and shutdown
// ──────────────────────────────────────────────────

// Run checks connectivity, prunes dead workers, registers, fires
// beforeFirstFork and then works until Shutdown, ShutdownNow or ctx is
// done. Cancelling ctx lets the in-flight job finish. On exit the worker
// unregisters and erases its per-worker statistics. Only a startup store
// failure is returned.
func (w *Worker) Run(ctx context.Context) error {
	c, err := w.broker.Connection(ctx)
	if err != nil {
		return err
	}
	if err := c.Ping(ctx); err != nil {
		return err
	}
	if err := w.PruneDeadWorkers(ctx); err != nil {
		w.logger.Warn("prune dead workers failed", slog.String("error", err.Error()))
	}
	if err := w.RegisterWorker(ctx); err != nil {
		return err
	}

	bk := context.WithoutCancel(ctx)
	defer w.exit(bk)

	if err := w.jobs.Events().Trigger(ctx, event.BeforeFirstFork, w); err != nil {
		w.logger.Warn("beforeFirstFork listener failed", slog.String("error", err.Error()))
	}

	interval := w.interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	w.logger.Info("worker started",
		slog.String("worker", w.ID()),
		slog.String("queues", queueList(w.queues)),
		slog.Duration("interval", interval),
	)
	for !w.shutdown.Load() && ctx.Err() == nil {
		w.Work(ctx, interval)
	}
	return nil
}

func (w *Worker) exit(ctx context.Context) {
	id := w.ID()
	if err := w.UnregisterWorker(ctx); err != nil {
		w.logger.Error("unregister failed", slog.String("worker", id), slog.String("error", err.Error()))
	}
	for _, name := range []string{stat.Processed, stat.Failed} {
		if err := w.stats.Clear(ctx, stat.Scoped(name, id)); err != nil {
			w.logger.Warn("clear worker stat failed", slog.String("stat", name), slog.String("error", err.Error()))
		}
	}
	w.logger.Info("worker stopped", slog.String("worker", id))
}

// Shutdown asks Run to exit once the current job finishes.
func (w *Worker) Shutdown() {
	w.shutdown.Store(true)
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.logger.Info("worker shutting down", slog.String("worker", w.ID()))
}

// ShutdownNow asks Run to exit and cancels the in-flight job's context.
func (w *Worker) ShutdownNow() {
	w.Shutdown()
	w.KillChild()
}

// KillChild cancels the context of the in-flight job. The job is then
// recorded with whatever outcome its performer returns. The worker keeps
// running.
func (w *Worker) KillChild() {
	w.mu.Lock()
	cancel := w.cancelJob
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	w.logger.Info("killing in-flight job", slog.String("worker", w.ID()))
	cancel()
}

// ShuttingDown reports whether Shutdown was requested.
func (w *Worker) ShuttingDown() bool { return w.shutdown.Load() }

// ──────────────────────────────────────────────────
// Dead worker pruning
// ──────────────────────────────────────────────────

// PruneDeadWorkers unregisters workers on this host whose process is no
// longer alive, with the same side effects as UnregisterWorker attributed
// to the dead worker. Workers on other hosts are left alone.
func (w *Worker) PruneDeadWorkers(ctx context.Context) error {
	ids, err := List(ctx, w.broker)
	if err != nil {
		return err
	}
	self := w.ID()
	for _, id := range ids {
		if id == self {
			continue
		}
		ident, err := ParseID(id)
		if err != nil {
			w.logger.Warn("skipping malformed worker id", slog.String("worker", id))
			continue
		}
		if ident.Host != w.hostname || ident.PID == w.pid || w.probe(ident.PID) {
			continue
		}
		w.logger.Info("pruning dead worker", slog.String("worker", id))
		if err := w.unregister(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
