// Package event is the in-process lifecycle event dispatcher. Listeners
// are registered per event name and invoked synchronously, in
// registration order, when the event is triggered.
package event

import "errors"

// Name identifies a lifecycle event.
type Name string

// Lifecycle events and the arguments passed to their listeners.
const (
	// AfterEnqueue fires after a job is pushed: (class string, args any, queue string).
	AfterEnqueue Name = "afterEnqueue"
	// BeforeFirstFork fires once when a worker starts: (worker).
	BeforeFirstFork Name = "beforeFirstFork"
	// BeforeFork fires in the poll loop before a job task starts: (job).
	BeforeFork Name = "beforeFork"
	// AfterFork fires inside the job task before Perform: (job).
	AfterFork Name = "afterFork"
	// BeforePerform fires before the job's performer runs: (job).
	BeforePerform Name = "beforePerform"
	// Performing fires once every beforePerform listener has accepted
	// the job, before its performer is resolved: (job).
	Performing Name = "performing"
	// AfterPerform fires after the performer returns successfully: (job).
	AfterPerform Name = "afterPerform"
	// OnFailure fires when a job fails: (err error, job).
	OnFailure Name = "onFailure"
)

// Names lists every lifecycle event.
var Names = []Name{
	AfterEnqueue, BeforeFirstFork, BeforeFork, AfterFork,
	BeforePerform, Performing, AfterPerform, OnFailure,
}

// ErrDontPerform is returned by a BeforePerform listener to skip the job.
// It is not a failure: the job leaves the queue without running and no
// failure is recorded.
var ErrDontPerform = errors.New("resque/event: do not perform")
