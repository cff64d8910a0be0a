package job

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgs is returned by Create when the arguments are not a
	// JSON-representable tree. Nothing is written to the store.
	ErrInvalidArgs = errors.New("resque/job: arguments must be a JSON mapping, sequence or scalar")

	// ErrEmptyClass is returned by Create when no class name is given.
	ErrEmptyClass = errors.New("resque/job: class name is empty")

	// ErrUnknownClass means no performer is registered for the class.
	ErrUnknownClass = errors.New("resque/job: unknown class")

	// ErrNoPerformer means the class factory produced no performer.
	ErrNoPerformer = errors.New("resque/job: factory returned no performer")

	// ErrNoService is returned when a Job not obtained from a Service is
	// performed or recreated.
	ErrNoService = errors.New("resque/job: job is not bound to a service")
)

// ConfigError reports a job whose class cannot be executed. It is recorded
// as a failure and never retried.
type ConfigError struct {
	Class string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("resque/job: cannot perform %q: %v", e.Class, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
