package service

import (
	"context"
	"fmt"
	"time"

	"cronwatch/config"
	"cronwatch/internal/event"
	"cronwatch/internal/model"
	"cronwatch/internal/repository"
	"cronwatch/internal/schedule"
	"cronwatch/pkg/cache"
	"cronwatch/pkg/common"
	"cronwatch/pkg/logger"
	"cronwatch/pkg/utils"
)

// Watchdog is the missed-execution detector. Absence of a signal cannot be
// observed reactively, so this loop polls: on every scan interval it walks the
// elapsed expected windows of each active task and synthesizes a MISSED
// execution for any window no report ever satisfied.
type Watchdog struct {
	cfg       *config.Config
	log       *logger.Logger
	evaluator *schedule.Evaluator
	taskRepo  repository.TaskRepository
	execRepo  repository.ExecutionRepository
	bus       *event.Bus
	cache     cache.Cache
	now       func() time.Time
}

func NewWatchdog(
	cfg *config.Config,
	log *logger.Logger,
	evaluator *schedule.Evaluator,
	taskRepo repository.TaskRepository,
	execRepo repository.ExecutionRepository,
	bus *event.Bus,
	inmemoryCache cache.Cache,
) *Watchdog {
	return &Watchdog{
		cfg:       cfg,
		log:       log,
		evaluator: evaluator,
		taskRepo:  taskRepo,
		execRepo:  execRepo,
		bus:       bus,
		cache:     inmemoryCache,
		now:       time.Now,
	}
}

func (w *Watchdog) Name() string {
	return "watchdog"
}

// Run blocks until the context is cancelled, scanning on a fixed interval.
// A failed scan is retried on the next tick, never escalated.
func (w *Watchdog) Run(ctx context.Context) error {
	w.log.Info("Watchdog started",
		logger.Field("scan_interval", w.cfg.Watchdog.ScanInterval),
		logger.Field("lookback", w.cfg.Watchdog.Lookback),
	)

	ticker := time.NewTicker(w.cfg.Watchdog.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Watchdog stopped")
			return nil
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Watchdog) scan(ctx context.Context) {
	tasks, err := w.taskRepo.ListActiveTasks(ctx)
	if err != nil {
		w.log.ErrorContext(ctx, "Failed to list active tasks", logger.ErrorField(err))
		return
	}

	for _, task := range tasks {
		if !utils.ShouldContinue(ctx, w.log) {
			return
		}
		w.scanTask(ctx, task)
	}
}

func (w *Watchdog) scanTask(ctx context.Context, task model.Task) {
	if task.Status != model.TaskStatusActive {
		return
	}

	scheduleCfg, err := task.ScheduleConfig()
	if err != nil {
		w.log.ErrorContextWithAlert(ctx, "Task has invalid schedule config",
			logger.ErrorField(err),
			logger.IntField("task_id", int(task.ID)),
			logger.StringField("task_name", task.Name),
		)
		return
	}

	grace := task.GracePeriod(w.cfg.Watchdog.DefaultGracePeriod)
	now := w.now().UTC()
	cursor := w.cursor(task.ID, now)

	// Bounded windows per scan so a pathological schedule cannot stall the
	// loop; the cursor persists progress across ticks.
	for i := 0; i < w.cfg.Watchdog.MaxWindowsPerScan; i++ {
		window, ok := w.evaluator.NextExpectedWindow(scheduleCfg, cursor)
		if !ok {
			// Dormant: no expected window within the horizon.
			return
		}

		deadline := window.End.Add(grace)
		if deadline.After(now) {
			// Window still open, nothing to judge yet.
			return
		}

		observed, err := w.execRepo.FindByTaskAndWindow(ctx, task.ID, window.Start, deadline)
		if err != nil {
			w.log.ErrorContext(ctx, "Failed to query executions for window",
				logger.ErrorField(err),
				logger.IntField("task_id", int(task.ID)),
				logger.TimeField("window_start", window.Start),
			)
			return
		}

		if observed == nil {
			missed, created, err := w.execRepo.CreateMissed(ctx, task.ID, window.Start)
			if err != nil {
				w.log.ErrorContext(ctx, "Failed to create missed execution",
					logger.ErrorField(err),
					logger.IntField("task_id", int(task.ID)),
					logger.TimeField("window_start", window.Start),
				)
				return
			}
			if created {
				w.log.WarnContext(ctx, "Task missed expected execution",
					logger.IntField("task_id", int(task.ID)),
					logger.StringField("task_name", task.Name),
					logger.TimeField("window_start", window.Start),
					logger.Field("grace_period", grace),
				)
				w.bus.Publish(event.Event{
					Kind:      event.KindExecutionMissed,
					Execution: *missed,
					Task:      task,
					At:        now,
				})
			}
		}

		cursor = window.Start.Add(time.Second)
		w.storeCursor(task.ID, cursor)
	}
}

// cursor returns where scanning resumes for a task: the memoized position when
// present, otherwise the lookback horizon. The cursor is clamped to the
// horizon so a long pause does not trigger an unbounded rescan.
func (w *Watchdog) cursor(taskID uint, now time.Time) time.Time {
	horizon := now.Add(-w.cfg.Watchdog.Lookback)

	cached, ok := cache.GetTyped[time.Time](w.cache, w.cursorKey(taskID))
	if !ok || cached.Before(horizon) {
		return horizon
	}
	return cached
}

func (w *Watchdog) storeCursor(taskID uint, cursor time.Time) {
	w.cache.Set(w.cursorKey(taskID), cursor, w.cfg.Cache.DefaultExpiration)
}

func (w *Watchdog) cursorKey(taskID uint) string {
	return fmt.Sprintf(common.KEY_WATCHDOG_CURSOR, taskID)
}
