package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cronwatch/internal/model"
	"cronwatch/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrExecutionNotFound = errors.New("execution not found")
	// ErrExecutionTerminal is returned when an outcome report arrives for an
	// execution that already left the RUNNING state.
	ErrExecutionTerminal = errors.New("execution already terminal")
)

type ExecutionRepository interface {
	RecordStart(ctx context.Context, taskID uint, startedAt time.Time, opts ...utils.DBOption) (*model.Execution, error)
	RecordOutcome(ctx context.Context, executionID uint, outcome model.ExecutionOutcome, endedAt time.Time, opts ...utils.DBOption) (*model.Execution, error)
	FindByID(ctx context.Context, id uint) (*model.Execution, error)
	FindByTaskAndWindow(ctx context.Context, taskID uint, start, end time.Time) (*model.Execution, error)
	CreateMissed(ctx context.Context, taskID uint, windowStart time.Time) (*model.Execution, bool, error)
	CountFailuresForProjectOnDate(ctx context.Context, projectID uint, date time.Time) (int64, error)
}

type executionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) ExecutionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) RecordStart(ctx context.Context, taskID uint, startedAt time.Time, opts ...utils.DBOption) (*model.Execution, error) {
	execution := &model.Execution{
		TaskID:    taskID,
		StartedAt: startedAt,
		Outcome:   model.OutcomeRunning,
	}
	if err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(execution).Error; err != nil {
		return nil, fmt.Errorf("failed to record execution start: %w", err)
	}
	return execution, nil
}

// RecordOutcome performs the RUNNING -> terminal transition at most once: the
// update is conditional on the current outcome, so a second report for the
// same execution fails with ErrExecutionTerminal instead of overwriting.
func (r *executionRepository) RecordOutcome(ctx context.Context, executionID uint, outcome model.ExecutionOutcome, endedAt time.Time, opts ...utils.DBOption) (*model.Execution, error) {
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	res := db.Model(&model.Execution{}).
		Where("id = ? AND outcome = ?", executionID, model.OutcomeRunning).
		Updates(map[string]interface{}{
			"outcome":  outcome,
			"ended_at": sql.NullTime{Time: endedAt, Valid: true},
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to record execution outcome: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, executionID)
		if err != nil {
			return nil, err
		}
		return existing, ErrExecutionTerminal
	}

	return r.FindByID(ctx, executionID)
}

func (r *executionRepository) FindByID(ctx context.Context, id uint) (*model.Execution, error) {
	var execution model.Execution
	if err := r.db.WithContext(ctx).First(&execution, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExecutionNotFound
		}
		return nil, err
	}
	return &execution, nil
}

// FindByTaskAndWindow returns the earliest reported execution whose start time
// falls within [start, end], or nil when none exists. Synthetic MISSED records
// are not observations and are excluded.
func (r *executionRepository) FindByTaskAndWindow(ctx context.Context, taskID uint, start, end time.Time) (*model.Execution, error) {
	var execution model.Execution
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND started_at >= ? AND started_at <= ? AND outcome <> ?",
			taskID, start, end, model.OutcomeMissed).
		Order("started_at ASC").
		First(&execution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &execution, nil
}

// CreateMissed synthesizes a MISSED execution for the given window. The
// (task_id, window_start) pair is the idempotency key: a concurrent or repeated
// call hits the partial unique index and returns the existing record, with the
// second return value false.
func (r *executionRepository) CreateMissed(ctx context.Context, taskID uint, windowStart time.Time) (*model.Execution, bool, error) {
	execution := &model.Execution{
		TaskID:      taskID,
		WindowStart: sql.NullTime{Time: windowStart, Valid: true},
		StartedAt:   windowStart,
		Outcome:     model.OutcomeMissed,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(execution)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create missed execution: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing model.Execution
		err := r.db.WithContext(ctx).
			Where("task_id = ? AND window_start = ? AND outcome = ?", taskID, windowStart, model.OutcomeMissed).
			First(&existing).Error
		if err != nil {
			return nil, false, fmt.Errorf("failed to load existing missed execution: %w", err)
		}
		return &existing, false, nil
	}

	return execution, true, nil
}

// CountFailuresForProjectOnDate counts FAILED plus MISSED executions attributed
// to the given UTC date, using end time when present and start time otherwise,
// the same attribution rule the aggregator applies.
func (r *executionRepository) CountFailuresForProjectOnDate(ctx context.Context, projectID uint, date time.Time) (int64, error) {
	dayStart := utils.DateUTC(date)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Execution{}).
		Joins("JOIN tasks ON tasks.id = executions.task_id").
		Where("tasks.project_id = ?", projectID).
		Where("executions.outcome IN ?", []model.ExecutionOutcome{model.OutcomeFailed, model.OutcomeMissed}).
		Where("COALESCE(executions.ended_at, executions.started_at) >= ? AND COALESCE(executions.ended_at, executions.started_at) < ?",
			dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
