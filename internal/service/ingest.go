package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cronwatch/config"
	"cronwatch/internal/event"
	"cronwatch/internal/model"
	"cronwatch/internal/repository"
	"cronwatch/pkg/logger"
)

var (
	ErrTaskDisabled   = errors.New("task is disabled")
	ErrInvalidOutcome = errors.New("outcome must be succeeded or failed")
)

// ExecutionService ingests upstream execution reports and turns them into
// durable records plus lifecycle events on the bus.
type ExecutionService interface {
	ReportStart(ctx context.Context, taskID uint) (*model.Execution, error)
	ReportOutcome(ctx context.Context, executionID uint, outcome model.ExecutionOutcome, endedAt *time.Time) (*model.Execution, error)
}

type executionService struct {
	cfg      *config.Config
	log      *logger.Logger
	taskRepo repository.TaskRepository
	execRepo repository.ExecutionRepository
	bus      *event.Bus
	now      func() time.Time
}

func NewExecutionService(
	cfg *config.Config,
	log *logger.Logger,
	taskRepo repository.TaskRepository,
	execRepo repository.ExecutionRepository,
	bus *event.Bus,
) ExecutionService {
	return &executionService{
		cfg:      cfg,
		log:      log,
		taskRepo: taskRepo,
		execRepo: execRepo,
		bus:      bus,
		now:      time.Now,
	}
}

func (s *executionService) ReportStart(ctx context.Context, taskID uint) (*model.Execution, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == model.TaskStatusDisabled {
		return nil, ErrTaskDisabled
	}

	execution, err := s.execRepo.RecordStart(ctx, task.ID, s.now().UTC())
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to record execution start",
			logger.ErrorField(err),
			logger.IntField("task_id", int(task.ID)),
		)
		return nil, fmt.Errorf("failed to record execution start: %w", err)
	}

	s.bus.Publish(event.Event{
		Kind:      event.KindExecutionStarted,
		Execution: *execution,
		Task:      *task,
		At:        s.now().UTC(),
	})

	return execution, nil
}

func (s *executionService) ReportOutcome(ctx context.Context, executionID uint, outcome model.ExecutionOutcome, endedAt *time.Time) (*model.Execution, error) {
	if outcome != model.OutcomeSucceeded && outcome != model.OutcomeFailed {
		return nil, ErrInvalidOutcome
	}

	end := s.now().UTC()
	if endedAt != nil {
		end = endedAt.UTC()
	}

	execution, err := s.execRepo.RecordOutcome(ctx, executionID, outcome, end)
	if err != nil {
		if !errors.Is(err, repository.ErrExecutionTerminal) {
			s.log.ErrorContext(ctx, "Failed to record execution outcome",
				logger.ErrorField(err),
				logger.IntField("execution_id", int(executionID)),
			)
		}
		return execution, err
	}

	task, err := s.taskRepo.FindByID(ctx, execution.TaskID)
	if err != nil {
		// The record is already durable; the event just lacks its task
		// snapshot. The roller will still pick the failure up.
		s.log.ErrorContext(ctx, "Failed to load task for outcome event",
			logger.ErrorField(err),
			logger.IntField("task_id", int(execution.TaskID)),
		)
		return execution, nil
	}

	if kind, ok := event.KindForOutcome(outcome); ok {
		s.bus.Publish(event.Event{
			Kind:      kind,
			Execution: *execution,
			Task:      *task,
			At:        s.now().UTC(),
		})
	}

	return execution, nil
}
