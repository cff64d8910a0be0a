// Package job defines the job envelope, its lifecycle operations, and the
// registry that maps class names to performers.
//
// # Payload
//
// A queued job is the JSON object
//
//	{"class": "SendEmail", "args": {...}, "id": "<token>"}
//
// "id" is present only when status tracking was requested. Arguments must
// be a JSON-representable tree of maps with string keys, slices, strings,
// numbers, booleans and nil; anything else is rejected with
// [ErrInvalidArgs] before the store is touched.
//
// # Lifecycle
//
//	Create → (queue) → Reserve → Perform → Completed | Failed | Skipped
//
// [Service.Create] pushes a payload and, when tracking, writes a Waiting
// status. [Service.Reserve] pops the head of a queue. [Job.Perform] runs
// the registered performer between the beforePerform and afterPerform
// events and reports a tri-state [Result]; it never writes status, which
// is the worker's job. [Job.Recreate] enqueues a copy with a new token.
//
// # Performers
//
// Register a [Factory] per class. A fresh performer is created for every
// execution; it may implement [SetUpper] and [TearDowner]:
//
//	reg.Register("SendEmail", func() job.Performer { return &SendEmail{} })
//
// Typed handlers are registered through [Definition]:
//
//	var Resize = job.NewDefinition("Resize",
//	    func(ctx context.Context, j *job.Job, in ResizeInput) (any, error) {
//	        return nil, images.Resize(ctx, in.Path, in.Width)
//	    },
//	    job.WithQueue("images"),
//	)
//	job.RegisterDefinition(reg, Resize)
package job
