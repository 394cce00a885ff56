package model

import (
	"database/sql"
	"time"

	"cronwatch/pkg/utils"
)

type ExecutionOutcome string

const (
	OutcomeRunning   ExecutionOutcome = "running"
	OutcomeSucceeded ExecutionOutcome = "succeeded"
	OutcomeFailed    ExecutionOutcome = "failed"
	OutcomeMissed    ExecutionOutcome = "missed"
)

type Execution struct {
	ID          uint `gorm:"primaryKey"`
	TaskID      uint `gorm:"not null"`
	WindowStart sql.NullTime
	StartedAt   time.Time `gorm:"not null"`
	EndedAt     sql.NullTime
	Outcome     ExecutionOutcome `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
}

func (Execution) TableName() string {
	return "executions"
}

// IsTerminal reports whether the execution has reached a final outcome.
func (e *Execution) IsTerminal() bool {
	return e.Outcome != OutcomeRunning
}

// FailureDate derives the UTC calendar date a failure is attributed to:
// the end time when present, the start time otherwise.
func (e *Execution) FailureDate() time.Time {
	if e.EndedAt.Valid {
		return utils.DateUTC(e.EndedAt.Time)
	}
	return utils.DateUTC(e.StartedAt)
}
