package broker

import (
	"context"
	"os"
	"strconv"
)

type execIDKey struct{}

// processExecutionID identifies the calling process when a context carries
// no explicit execution id.
var processExecutionID = "pid:" + strconv.Itoa(os.Getpid())

// WithExecutionID returns a context whose store calls use a connection
// dedicated to id. Workers give each job task its own id so the task
// never shares a connection with the poll loop.
func WithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, execIDKey{}, id)
}

// ExecutionID returns the execution context id carried by ctx, or the
// process id when none is set.
func ExecutionID(ctx context.Context) string {
	if id, ok := ctx.Value(execIDKey{}).(string); ok && id != "" {
		return id
	}
	return processExecutionID
}
