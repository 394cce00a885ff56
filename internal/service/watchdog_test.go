package service

import (
	"context"
	"testing"
	"time"

	"cronwatch/config"
	"cronwatch/internal/event"
	"cronwatch/internal/model"
	"cronwatch/internal/schedule"
	"cronwatch/pkg/cache"
	"cronwatch/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func watchdogConfig() *config.Config {
	return &config.Config{
		Watchdog: config.Watchdog{
			ScanInterval:       time.Minute,
			Lookback:           90 * time.Minute,
			DefaultGracePeriod: 5 * time.Minute,
			MaxWindowsPerScan:  60,
		},
		Cache: config.Cache{
			DefaultExpiration: time.Hour,
			CleanupInterval:   time.Hour,
		},
	}
}

func hourlyTask(id uint, status model.TaskStatus) model.Task {
	return model.Task{
		ID:           id,
		ProjectID:    1,
		Name:         "nightly-report",
		ScheduleType: model.ScheduleTypeRecurring,
		Status:       status,
		Config:       datatypes.JSON([]byte(`{"cron_expression":"0 0 * * * *","timezone":"UTC"}`)),
	}
}

func newTestWatchdog(t *testing.T, tasks []model.Task, execRepo *fakeExecutionRepo, now time.Time) (*Watchdog, <-chan event.Event) {
	t.Helper()

	bus := event.NewBus(16, logger.NewNop())
	missed := bus.Subscribe(event.KindExecutionMissed)

	w := NewWatchdog(
		watchdogConfig(),
		logger.NewNop(),
		schedule.NewEvaluator(),
		&fakeTaskRepo{tasks: tasks},
		execRepo,
		bus,
		cache.NewCache(time.Hour, time.Hour),
	)
	w.now = func() time.Time { return now }
	return w, missed
}

func drainEvents(ch <-chan event.Event) []event.Event {
	var events []event.Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestWatchdogCreatesMissedExecutions(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 10, 0, 0, time.UTC)
	execRepo := newFakeExecutionRepo()
	w, missedCh := newTestWatchdog(t, []model.Task{hourlyTask(1, model.TaskStatusActive)}, execRepo, now)

	w.scan(context.Background())

	// Lookback covers the 11:00 and 12:00 windows, both past their grace deadline.
	require.Len(t, execRepo.missed, 2)
	events := drainEvents(missedCh)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, event.KindExecutionMissed, first.Kind)
	assert.Equal(t, model.OutcomeMissed, first.Execution.Outcome)
	assert.Equal(t, uint(1), first.Task.ID)
	assert.True(t, first.Execution.WindowStart.Valid)
	assert.Equal(t, time.Date(2025, 1, 5, 11, 0, 0, 0, time.UTC), first.Execution.WindowStart.Time)
	assert.Equal(t, time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC), events[1].Execution.WindowStart.Time)
}

func TestWatchdogScanIsIdempotent(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 10, 0, 0, time.UTC)
	execRepo := newFakeExecutionRepo()
	w, missedCh := newTestWatchdog(t, []model.Task{hourlyTask(1, model.TaskStatusActive)}, execRepo, now)

	w.scan(context.Background())
	w.scan(context.Background())

	assert.Len(t, execRepo.missed, 2)
	assert.Len(t, drainEvents(missedCh), 2)
}

func TestWatchdogSkipsObservedWindow(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 10, 0, 0, time.UTC)
	execRepo := newFakeExecutionRepo()

	windowStart := time.Date(2025, 1, 5, 11, 0, 0, 0, time.UTC)
	execRepo.observed[windowKey(1, windowStart)] = &model.Execution{
		ID:        42,
		TaskID:    1,
		StartedAt: windowStart.Add(30 * time.Second),
		Outcome:   model.OutcomeSucceeded,
	}

	w, missedCh := newTestWatchdog(t, []model.Task{hourlyTask(1, model.TaskStatusActive)}, execRepo, now)
	w.scan(context.Background())

	require.Len(t, execRepo.missed, 1)
	events := drainEvents(missedCh)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC), events[0].Execution.WindowStart.Time)
}

func TestWatchdogIgnoresNonActiveTasks(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 10, 0, 0, time.UTC)
	execRepo := newFakeExecutionRepo()
	tasks := []model.Task{
		hourlyTask(1, model.TaskStatusPaused),
		hourlyTask(2, model.TaskStatusDisabled),
	}

	w, missedCh := newTestWatchdog(t, tasks, execRepo, now)
	w.scan(context.Background())

	assert.Empty(t, execRepo.missed)
	assert.Empty(t, drainEvents(missedCh))
}

func TestWatchdogInvalidScheduleConfig(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 10, 0, 0, time.UTC)
	execRepo := newFakeExecutionRepo()
	task := hourlyTask(1, model.TaskStatusActive)
	task.Config = datatypes.JSON([]byte(`{"timezone":"UTC"}`))

	w, missedCh := newTestWatchdog(t, []model.Task{task}, execRepo, now)
	w.scan(context.Background())

	assert.Empty(t, execRepo.missed)
	assert.Empty(t, drainEvents(missedCh))
}

func TestWatchdogRespectsTaskGracePeriod(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 10, 0, 0, time.UTC)
	execRepo := newFakeExecutionRepo()
	task := hourlyTask(1, model.TaskStatusActive)
	task.GracePeriodSeconds = 3600

	w, missedCh := newTestWatchdog(t, []model.Task{task}, execRepo, now)
	w.scan(context.Background())

	// With a one hour grace the 12:00 window is still open, only 11:00 is missed.
	require.Len(t, execRepo.missed, 1)
	events := drainEvents(missedCh)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2025, 1, 5, 11, 0, 0, 0, time.UTC), events[0].Execution.WindowStart.Time)
}

func TestWatchdogOneOffTask(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 10, 0, 0, time.UTC)
	execRepo := newFakeExecutionRepo()
	task := model.Task{
		ID:           3,
		ProjectID:    1,
		Name:         "one-time-import",
		ScheduleType: model.ScheduleTypeOneOff,
		Status:       model.TaskStatusActive,
		Config:       datatypes.JSON([]byte(`{"execute_at":"2025-01-05T11:30:00Z"}`)),
	}

	w, missedCh := newTestWatchdog(t, []model.Task{task}, execRepo, now)
	w.scan(context.Background())
	w.scan(context.Background())

	require.Len(t, execRepo.missed, 1)
	events := drainEvents(missedCh)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2025, 1, 5, 11, 30, 0, 0, time.UTC), events[0].Execution.WindowStart.Time)
}

func TestWatchdogRetriesAfterQueryError(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 10, 0, 0, time.UTC)
	execRepo := newFakeExecutionRepo()
	execRepo.findErr = assert.AnError

	w, missedCh := newTestWatchdog(t, []model.Task{hourlyTask(1, model.TaskStatusActive)}, execRepo, now)

	w.scan(context.Background())
	assert.Empty(t, execRepo.missed)

	// The cursor did not advance past the failed window, so the next scan
	// picks it up again.
	execRepo.findErr = nil
	w.scan(context.Background())

	assert.Len(t, execRepo.missed, 2)
	assert.Len(t, drainEvents(missedCh), 2)
}
