// Package ext defines the extension system for resque.
//
// Extensions are notified of lifecycle events and can react to them:
// recording metrics, emitting webhooks, writing audit logs. Each hook is a
// separate interface so extensions opt in only to the events they care
// about. A [Registry] subscribes every implemented hook to the event
// dispatcher; hook errors are logged and never affect the job.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	func (e *MyExtension) OnJobCompleted(ctx context.Context, j *job.Job) error {
//	    log.Printf("job %s completed", j)
//	    return nil
//	}
//
// # Hooks
//
//   - [JobEnqueued] fires on afterEnqueue
//   - [JobStarted] fires on performing, after every beforePerform listener accepted the job
//   - [JobCompleted] fires on afterPerform
//   - [JobFailed] fires on onFailure
//   - [WorkerStarted] fires on beforeFirstFork
package ext
