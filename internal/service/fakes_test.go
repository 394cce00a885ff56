package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cronwatch/internal/model"
	"cronwatch/internal/repository"
	"cronwatch/pkg/utils"
)

type fakeTaskRepo struct {
	tasks   []model.Task
	listErr error
}

func (f *fakeTaskRepo) ListActiveTasks(ctx context.Context, opts ...utils.DBOption) ([]model.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tasks, nil
}

func (f *fakeTaskRepo) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			task := f.tasks[i]
			return &task, nil
		}
	}
	return nil, repository.ErrTaskNotFound
}

type fakeProjectRepo struct {
	projects []model.Project
	listErr  error
}

func (f *fakeProjectRepo) ListAll(ctx context.Context) ([]model.Project, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.projects, nil
}

func (f *fakeProjectRepo) FindByID(ctx context.Context, id uint) (*model.Project, error) {
	for i := range f.projects {
		if f.projects[i].ID == id {
			project := f.projects[i]
			return &project, nil
		}
	}
	return nil, repository.ErrProjectNotFound
}

func windowKey(taskID uint, windowStart time.Time) string {
	return fmt.Sprintf("%d|%s", taskID, windowStart.UTC().Format(time.RFC3339))
}

func statKey(projectID uint, date time.Time) string {
	return fmt.Sprintf("%d|%s", projectID, utils.FormatDate(date))
}

type fakeExecutionRepo struct {
	nextID     uint
	executions map[uint]*model.Execution
	observed   map[string]*model.Execution
	missed     map[string]*model.Execution
	counts     map[string]int64

	findErr  error
	countErr map[string]error
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{
		executions: make(map[uint]*model.Execution),
		observed:   make(map[string]*model.Execution),
		missed:     make(map[string]*model.Execution),
		counts:     make(map[string]int64),
		countErr:   make(map[string]error),
	}
}

func (f *fakeExecutionRepo) RecordStart(ctx context.Context, taskID uint, startedAt time.Time, opts ...utils.DBOption) (*model.Execution, error) {
	f.nextID++
	execution := &model.Execution{
		ID:        f.nextID,
		TaskID:    taskID,
		StartedAt: startedAt,
		Outcome:   model.OutcomeRunning,
	}
	f.executions[execution.ID] = execution
	copied := *execution
	return &copied, nil
}

func (f *fakeExecutionRepo) RecordOutcome(ctx context.Context, executionID uint, outcome model.ExecutionOutcome, endedAt time.Time, opts ...utils.DBOption) (*model.Execution, error) {
	execution, ok := f.executions[executionID]
	if !ok {
		return nil, repository.ErrExecutionNotFound
	}
	if execution.IsTerminal() {
		copied := *execution
		return &copied, repository.ErrExecutionTerminal
	}
	execution.Outcome = outcome
	execution.EndedAt = sql.NullTime{Time: endedAt, Valid: true}
	copied := *execution
	return &copied, nil
}

func (f *fakeExecutionRepo) FindByID(ctx context.Context, id uint) (*model.Execution, error) {
	execution, ok := f.executions[id]
	if !ok {
		return nil, repository.ErrExecutionNotFound
	}
	copied := *execution
	return &copied, nil
}

func (f *fakeExecutionRepo) FindByTaskAndWindow(ctx context.Context, taskID uint, start, end time.Time) (*model.Execution, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	execution, ok := f.observed[windowKey(taskID, start)]
	if !ok {
		return nil, nil
	}
	copied := *execution
	return &copied, nil
}

func (f *fakeExecutionRepo) CreateMissed(ctx context.Context, taskID uint, windowStart time.Time) (*model.Execution, bool, error) {
	key := windowKey(taskID, windowStart)
	if existing, ok := f.missed[key]; ok {
		copied := *existing
		return &copied, false, nil
	}
	f.nextID++
	execution := &model.Execution{
		ID:          f.nextID,
		TaskID:      taskID,
		WindowStart: sql.NullTime{Time: windowStart, Valid: true},
		StartedAt:   windowStart,
		Outcome:     model.OutcomeMissed,
	}
	f.missed[key] = execution
	f.executions[execution.ID] = execution
	copied := *execution
	return &copied, true, nil
}

func (f *fakeExecutionRepo) CountFailuresForProjectOnDate(ctx context.Context, projectID uint, date time.Time) (int64, error) {
	key := statKey(projectID, date)
	if err := f.countErr[key]; err != nil {
		return 0, err
	}
	return f.counts[key], nil
}

type fakeFailureStatRepo struct {
	increments map[string]int64
	upserts    map[string]int64

	incrementErr error
	upsertErr    map[string]error
}

func newFakeFailureStatRepo() *fakeFailureStatRepo {
	return &fakeFailureStatRepo{
		increments: make(map[string]int64),
		upserts:    make(map[string]int64),
		upsertErr:  make(map[string]error),
	}
}

func (f *fakeFailureStatRepo) IncrementFailureStat(ctx context.Context, projectID uint, date time.Time) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.increments[statKey(projectID, date)]++
	return nil
}

func (f *fakeFailureStatRepo) UpsertFailureStat(ctx context.Context, projectID uint, date time.Time, total int64) error {
	key := statKey(projectID, date)
	if err := f.upsertErr[key]; err != nil {
		return err
	}
	f.upserts[key] = total
	return nil
}

func (f *fakeFailureStatRepo) GetFailureStat(ctx context.Context, projectID uint, date time.Time) (int64, error) {
	return f.upserts[statKey(projectID, date)], nil
}
