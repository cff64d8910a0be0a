package job

// Outcome classifies a Perform.
type Outcome int

const (
	// Completed means the performer returned without error.
	Completed Outcome = iota + 1
	// Failed means resolution, setup, perform, teardown or a listener
	// returned an error.
	Failed
	// Skipped means a beforePerform listener returned
	// event.ErrDontPerform. It is neither success nor failure.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the outcome of Perform. Value holds the performer's return
// value when Completed; Err holds the cause when Failed.
type Result struct {
	Outcome Outcome
	Value   any
	Err     error
}

// Complete returns a Completed result.
func Complete(v any) Result { return Result{Outcome: Completed, Value: v} }

// Fail returns a Failed result.
func Fail(err error) Result { return Result{Outcome: Failed, Err: err} }

// Skip returns a Skipped result.
func Skip() Result { return Result{Outcome: Skipped} }
