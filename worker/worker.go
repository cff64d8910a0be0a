package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/resque/broker"
	"github.com/xraph/resque/failure"
	"github.com/xraph/resque/job"
	"github.com/xraph/resque/stat"
	"github.com/xraph/resque/status"
	"github.com/xraph/resque/store"
)

// AllQueues in a queue list means every known queue.
const AllQueues = "*"

// DefaultInterval is the idle sleep between polls in Run.
const DefaultInterval = 5 * time.Second

// LivenessProbe reports whether a process with pid is running on this
// host.
type LivenessProbe func(pid int) bool

// Record is the "working on" record stored at worker:{id}.
type Record struct {
	Queue   string      `json:"queue"`
	RunAt   time.Time   `json:"run_at"`
	Payload job.Payload `json:"payload"`
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithHostname overrides the host part of the worker id.
func WithHostname(h string) Option {
	return func(w *Worker) { w.hostname = h }
}

// WithPID overrides the process id part of the worker id.
func WithPID(pid int) Option {
	return func(w *Worker) { w.pid = pid }
}

// WithLivenessProbe replaces the probe used by PruneDeadWorkers.
func WithLivenessProbe(p LivenessProbe) Option {
	return func(w *Worker) { w.probe = p }
}

// WithInterval sets the idle sleep used by Run.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) { w.interval = d }
}

// WithClock overrides the time source for records.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// Worker polls queues and performs the jobs it reserves, one at a time.
type Worker struct {
	broker   *broker.Broker
	jobs     *job.Service
	stats    *stat.Counter
	failures *failure.Log
	logger   *slog.Logger
	probe    LivenessProbe
	now      func() time.Time

	hostname string
	pid      int
	queues   []string
	interval time.Duration

	paused   atomic.Bool
	shutdown atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	seq      atomic.Uint64

	mu        sync.Mutex
	id        string
	current   *job.Job
	cancelJob context.CancelFunc
}

// New creates a worker for queues. An empty list means "*".
func New(b *broker.Broker, jobs *job.Service, queues []string, opts ...Option) *Worker {
	if len(queues) == 0 {
		queues = []string{AllQueues}
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	w := &Worker{
		broker:   b,
		jobs:     jobs,
		stats:    stat.New(b),
		failures: failure.NewLog(b),
		logger:   slog.Default(),
		probe:    processAlive,
		now:      time.Now,
		hostname: host,
		pid:      os.Getpid(),
		queues:   slices.Clone(queues),
		interval: DefaultInterval,
		stopCh:   make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	w.id = Identity{Host: w.hostname, PID: w.pid, Queues: w.queues}.String()
	return w
}

// ID returns the worker id.
func (w *Worker) ID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id
}

func (w *Worker) String() string { return w.ID() }

// SetID overrides the worker id. Used to act on behalf of another
// registered worker.
func (w *Worker) SetID(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.id = id
}

// Hostname returns the host part of the worker id.
func (w *Worker) Hostname() string { return w.hostname }

// Queues resolves the queue list for this cycle. "*" is replaced by every
// known queue, sorted.
func (w *Worker) Queues(ctx context.Context) ([]string, error) {
	if !slices.Contains(w.queues, AllQueues) {
		return slices.Clone(w.queues), nil
	}
	return w.broker.Queues(ctx)
}

// ──────────────────────────────────────────────────
// Registration
// ──────────────────────────────────────────────────

// RegisterWorker adds the worker to the registry and records its start
// time.
func (w *Worker) RegisterWorker(ctx context.Context) error {
	c, err := w.broker.Connection(ctx)
	if err != nil {
		return err
	}
	id := w.ID()
	if err := c.SAdd(ctx, WorkersKey, id); err != nil {
		return err
	}
	if err := c.Set(ctx, StartedKey(id), w.now().UTC().Format(time.RFC3339), 0); err != nil {
		return err
	}
	w.logger.Info("worker registered", slog.String("worker", id))
	return nil
}

// UnregisterWorker removes the worker from the registry. A job still
// recorded as in flight is failed with ErrDirtyExit and counted against
// both the global and the per-worker failed counters.
func (w *Worker) UnregisterWorker(ctx context.Context) error {
	err := w.unregister(ctx, w.ID())
	w.mu.Lock()
	w.current = nil
	w.mu.Unlock()
	return err
}

func (w *Worker) unregister(ctx context.Context, id string) error {
	c, err := w.broker.Connection(ctx)
	if err != nil {
		return err
	}
	rec, err := readRecord(ctx, c, id)
	if err != nil {
		w.logger.Warn("unreadable working-on record",
			slog.String("worker", id),
			slog.String("error", err.Error()),
		)
	}
	if rec != nil {
		j := w.jobs.NewJob(rec.Queue, rec.Payload)
		j.Worker = id
		w.fail(ctx, j, ErrDirtyExit, id)
	}

	if err := c.SRem(ctx, WorkersKey, id); err != nil {
		return err
	}
	if err := c.Del(ctx, Key(id), StartedKey(id)); err != nil {
		return err
	}
	w.logger.Info("worker unregistered", slog.String("worker", id))
	return nil
}

// ──────────────────────────────────────────────────
// Working-on record
// ──────────────────────────────────────────────────

// WorkingOn claims j for this worker: the job is marked Running and the
// "working on" record is written.
func (w *Worker) WorkingOn(ctx context.Context, j *job.Job) error {
	id := w.ID()
	j.Worker = id
	w.mu.Lock()
	w.current = j
	w.mu.Unlock()

	if err := j.UpdateStatus(ctx, status.Running); err != nil {
		return err
	}
	data, err := json.Marshal(Record{Queue: j.Queue, RunAt: w.now().UTC(), Payload: j.Payload})
	if err != nil {
		return &store.Error{Op: "encode", Key: Key(id), Err: err}
	}
	c, err := w.broker.Connection(ctx)
	if err != nil {
		return err
	}
	return c.Set(ctx, Key(id), string(data), 0)
}

// DoneWorking clears the "working on" record.
func (w *Worker) DoneWorking(ctx context.Context) error {
	w.mu.Lock()
	w.current = nil
	w.mu.Unlock()

	c, err := w.broker.Connection(ctx)
	if err != nil {
		return err
	}
	return c.Del(ctx, Key(w.ID()))
}

// Job returns the "working on" record, nil when idle.
func (w *Worker) Job(ctx context.Context) (*Record, error) {
	c, err := w.broker.Connection(ctx)
	if err != nil {
		return nil, err
	}
	return readRecord(ctx, c, w.ID())
}

// Current returns the job being processed in this process, if any.
func (w *Worker) Current() *job.Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func readRecord(ctx context.Context, c store.Store, id string) (*Record, error) {
	raw, err := c.Get(ctx, Key(id))
	if errors.Is(err, store.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := new(Record)
	if err := json.Unmarshal([]byte(raw), rec); err != nil {
		return nil, &store.Error{Op: "decode", Key: Key(id), Err: err}
	}
	return rec, nil
}

// ──────────────────────────────────────────────────
// Statistics and state
// ──────────────────────────────────────────────────

// GetStat returns the per-worker counter name (stat.Processed or
// stat.Failed).
func (w *Worker) GetStat(ctx context.Context, name string) (int64, error) {
	return w.stats.Get(ctx, stat.Scoped(name, w.ID()))
}

// PauseProcessing stops reservation. The worker stays registered and
// keeps polling.
func (w *Worker) PauseProcessing() {
	if !w.paused.Swap(true) {
		w.logger.Info("worker paused", slog.String("worker", w.ID()))
	}
}

// UnPauseProcessing resumes reservation.
func (w *Worker) UnPauseProcessing() {
	if w.paused.Swap(false) {
		w.logger.Info("worker resumed", slog.String("worker", w.ID()))
	}
}

// Paused reports whether reservation is paused.
func (w *Worker) Paused() bool { return w.paused.Load() }

func queueList(queues []string) string { return strings.Join(queues, ",") }
