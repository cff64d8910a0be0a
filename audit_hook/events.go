package audithook

// Audit actions, one per lifecycle hook.
const (
	ActionJobEnqueued   = "job.enqueued"
	ActionJobStarted    = "job.started"
	ActionJobCompleted  = "job.completed"
	ActionJobFailed     = "job.failed"
	ActionWorkerStarted = "worker.started"
)

// Categories group related actions.
const (
	CategoryJob    = "resque.job"
	CategoryWorker = "resque.worker"
)

// Resource types.
const (
	ResourceJob    = "job"
	ResourceWorker = "worker"
)

// AllActions returns every action the extension emits.
func AllActions() []string {
	return []string{
		ActionJobEnqueued,
		ActionJobStarted,
		ActionJobCompleted,
		ActionJobFailed,
		ActionWorkerStarted,
	}
}
