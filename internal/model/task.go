package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type ScheduleType string

const (
	ScheduleTypeRecurring ScheduleType = "recurring"
	ScheduleTypeOneOff    ScheduleType = "oneoff"
)

type TaskStatus string

const (
	TaskStatusActive   TaskStatus = "active"
	TaskStatusPaused   TaskStatus = "paused"
	TaskStatusDisabled TaskStatus = "disabled"
)

// ErrInvalidScheduleConfig marks a schedule definition that violates the
// recurring/one-off mutual exclusivity invariant. It is surfaced to the task
// owner, never silently defaulted.
var ErrInvalidScheduleConfig = errors.New("invalid schedule config")

type Task struct {
	ID                 uint           `gorm:"primaryKey"`
	ProjectID          uint           `gorm:"not null"`
	Name               string         `gorm:"type:varchar(255);not null"`
	ScheduleType       ScheduleType   `gorm:"type:varchar(20);not null"`
	Status             TaskStatus     `gorm:"type:varchar(20);not null;default:active"`
	Config             datatypes.JSON `gorm:"type:jsonb;not null"`
	GracePeriodSeconds int            `gorm:"default:0"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`

	Project Project `gorm:"foreignKey:ProjectID;references:ID"`
}

func (Task) TableName() string {
	return "tasks"
}

// TimeRange restricts which firings of a recurring schedule count as expected,
// expressed as local times of day in HH:MM.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Exclusions lists local calendar dates (YYYY-MM-DD) and weekdays (0=Sunday)
// on which no execution is expected.
type Exclusions struct {
	Dates    []string `json:"dates,omitempty"`
	Weekdays []int    `json:"weekdays,omitempty"`
}

type ScheduleConfig struct {
	CronExpression string      `json:"cron_expression,omitempty"`
	Timezone       string      `json:"timezone,omitempty"`
	TimeRange      *TimeRange  `json:"time_range,omitempty"`
	DaysOfWeek     []int       `json:"days_of_week,omitempty"`
	Exclusions     *Exclusions `json:"exclusions,omitempty"`
	ExecuteAt      *time.Time  `json:"execute_at,omitempty"`
}

// Validate enforces the schedule invariant: recurring tasks carry a cron
// expression plus timezone, one-off tasks carry a single instant, and the two
// shapes are mutually exclusive within one config.
func (c *ScheduleConfig) Validate(scheduleType ScheduleType) error {
	switch scheduleType {
	case ScheduleTypeRecurring:
		if c.CronExpression == "" || c.Timezone == "" {
			return fmt.Errorf("%w: recurring task requires cron_expression and timezone", ErrInvalidScheduleConfig)
		}
		if c.ExecuteAt != nil {
			return fmt.Errorf("%w: recurring task must not set execute_at", ErrInvalidScheduleConfig)
		}
	case ScheduleTypeOneOff:
		if c.ExecuteAt == nil {
			return fmt.Errorf("%w: one-off task requires execute_at", ErrInvalidScheduleConfig)
		}
		if c.CronExpression != "" {
			return fmt.Errorf("%w: one-off task must not set cron_expression", ErrInvalidScheduleConfig)
		}
	default:
		return fmt.Errorf("%w: unknown schedule type %q", ErrInvalidScheduleConfig, scheduleType)
	}
	return nil
}

// ScheduleConfig decodes and validates the task's jsonb schedule definition.
func (t *Task) ScheduleConfig() (*ScheduleConfig, error) {
	var cfg ScheduleConfig
	if err := json.Unmarshal(t.Config, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScheduleConfig, err)
	}
	if err := cfg.Validate(t.ScheduleType); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GracePeriod returns the task's grace period, falling back to the given
// default when the task does not configure one.
func (t *Task) GracePeriod(fallback time.Duration) time.Duration {
	if t.GracePeriodSeconds > 0 {
		return time.Duration(t.GracePeriodSeconds) * time.Second
	}
	return fallback
}
