package dto

import "time"

type FinishExecutionRequest struct {
	Outcome string     `json:"outcome" validate:"required,oneof=succeeded failed"`
	EndedAt *time.Time `json:"ended_at"`
}

type ExecutionResponse struct {
	ExecutionID uint       `json:"execution_id"`
	TaskID      uint       `json:"task_id"`
	Outcome     string     `json:"outcome"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

type TaskResponse struct {
	TaskID       uint       `json:"task_id"`
	ProjectID    uint       `json:"project_id"`
	Name         string     `json:"name"`
	ScheduleType string     `json:"schedule_type"`
	Status       string     `json:"status"`
	NextWindow   *time.Time `json:"next_window,omitempty"`
}

type FailureStatResponse struct {
	ProjectID uint   `json:"project_id"`
	Date      string `json:"date"`
	Count     int64  `json:"count"`
}
