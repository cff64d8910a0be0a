// Package audithook is an extension that turns job and worker lifecycle
// events into structured audit events.
//
// Events go to a [Recorder]. [LogRecorder] writes them to a slog logger;
// other backends are plugged in with [RecorderFunc]:
//
//	rq, err := resque.New(
//	    resque.WithExtension(audithook.New(audithook.LogRecorder(logger))),
//	)
//
// Only some actions can be kept:
//
//	audithook.New(recorder, audithook.WithActions(audithook.ActionJobFailed))
package audithook
