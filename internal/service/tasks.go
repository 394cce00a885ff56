package service

import (
	"context"
	"time"

	"cronwatch/config"
	"cronwatch/internal/model"
	"cronwatch/internal/repository"
	"cronwatch/internal/schedule"
	"cronwatch/pkg/logger"
)

// TaskOverview pairs a task with its next expected window, when one exists
// within the evaluator's look-ahead horizon.
type TaskOverview struct {
	Task       model.Task
	NextWindow *time.Time
}

type TaskService interface {
	ListActiveTasks(ctx context.Context) ([]TaskOverview, error)
}

type taskService struct {
	cfg       *config.Config
	log       *logger.Logger
	evaluator *schedule.Evaluator
	taskRepo  repository.TaskRepository
	now       func() time.Time
}

func NewTaskService(cfg *config.Config, log *logger.Logger, evaluator *schedule.Evaluator, taskRepo repository.TaskRepository) TaskService {
	return &taskService{
		cfg:       cfg,
		log:       log,
		evaluator: evaluator,
		taskRepo:  taskRepo,
		now:       time.Now,
	}
}

func (s *taskService) ListActiveTasks(ctx context.Context) ([]TaskOverview, error) {
	tasks, err := s.taskRepo.ListActiveTasks(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	overviews := make([]TaskOverview, 0, len(tasks))
	for _, task := range tasks {
		overview := TaskOverview{Task: task}

		scheduleCfg, err := task.ScheduleConfig()
		if err != nil {
			s.log.WarnContext(ctx, "Task has invalid schedule config",
				logger.ErrorField(err),
				logger.IntField("task_id", int(task.ID)),
			)
			overviews = append(overviews, overview)
			continue
		}

		if window, ok := s.evaluator.NextExpectedWindow(scheduleCfg, now); ok {
			overview.NextWindow = &window.Start
		}
		overviews = append(overviews, overview)
	}

	return overviews, nil
}
