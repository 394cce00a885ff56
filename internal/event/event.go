package event

import (
	"time"

	"cronwatch/internal/model"
)

type Kind string

const (
	KindExecutionStarted   Kind = "execution_started"
	KindExecutionSucceeded Kind = "execution_succeeded"
	KindExecutionFailed    Kind = "execution_failed"
	KindExecutionMissed    Kind = "execution_missed"
)

// Event is an ephemeral execution-lifecycle notification. It carries the
// execution and a snapshot of its parent task at emission time; durable facts
// live in the execution and failure-stat records, not here.
type Event struct {
	Kind      Kind
	Execution model.Execution
	Task      model.Task
	At        time.Time
}

// KindForOutcome maps a terminal execution outcome to its event kind.
func KindForOutcome(outcome model.ExecutionOutcome) (Kind, bool) {
	switch outcome {
	case model.OutcomeSucceeded:
		return KindExecutionSucceeded, true
	case model.OutcomeFailed:
		return KindExecutionFailed, true
	case model.OutcomeMissed:
		return KindExecutionMissed, true
	default:
		return "", false
	}
}

// IsFailure reports whether the event contributes to failure statistics.
func (e Event) IsFailure() bool {
	return e.Kind == KindExecutionFailed || e.Kind == KindExecutionMissed
}
