package schedule

import (
	"testing"
	"time"

	"cronwatch/internal/model"
	"cronwatch/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recurring(expr, tz string) *model.ScheduleConfig {
	return &model.ScheduleConfig{CronExpression: expr, Timezone: tz}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestNextExpectedWindow_PlainRecurring(t *testing.T) {
	e := NewEvaluator()

	cfg := recurring("0 0 10 * * *", "UTC")
	win, ok := e.NextExpectedWindow(cfg, mustTime(t, "2025-01-01T08:00:00Z"))
	require.True(t, ok)
	assert.True(t, win.Start.Equal(mustTime(t, "2025-01-01T10:00:00Z")))
	assert.True(t, win.End.Equal(win.Start))

	// A firing exactly at the reference instant counts.
	win, ok = e.NextExpectedWindow(cfg, mustTime(t, "2025-01-01T10:00:00Z"))
	require.True(t, ok)
	assert.True(t, win.Start.Equal(mustTime(t, "2025-01-01T10:00:00Z")))
}

func TestNextExpectedWindow_TimeRangeAdvancesToNextDay(t *testing.T) {
	e := NewEvaluator()

	cfg := recurring("* * * * * *", "UTC")
	cfg.TimeRange = &model.TimeRange{Start: "09:00", End: "12:00"}

	win, ok := e.NextExpectedWindow(cfg, mustTime(t, "2025-01-01T13:00:00Z"))
	require.True(t, ok)
	assert.True(t, win.Start.Equal(mustTime(t, "2025-01-02T09:00:00Z")))
}

func TestNextExpectedWindow_TimeRangeSameDay(t *testing.T) {
	e := NewEvaluator()

	cfg := recurring("* * * * * *", "UTC")
	cfg.TimeRange = &model.TimeRange{Start: "09:00", End: "12:00"}

	win, ok := e.NextExpectedWindow(cfg, mustTime(t, "2025-01-01T03:00:00Z"))
	require.True(t, ok)
	assert.True(t, win.Start.Equal(mustTime(t, "2025-01-01T09:00:00Z")))
}

func TestNextExpectedWindow_Monotonicity(t *testing.T) {
	e := NewEvaluator()

	cfg := recurring("0 */15 * * * *", "UTC")
	cfg.TimeRange = &model.TimeRange{Start: "08:00", End: "18:00"}
	cfg.DaysOfWeek = []int{1, 2, 3, 4, 5}

	base := mustTime(t, "2025-01-01T00:00:00Z")
	var previous time.Time
	for i := 0; i < 200; i++ {
		after := base.Add(time.Duration(i) * 37 * time.Minute)
		win, ok := e.NextExpectedWindow(cfg, after)
		require.True(t, ok)
		require.False(t, win.Start.Before(after))
		if i > 0 {
			require.False(t, win.Start.Before(previous), "window moved backwards at step %d", i)
		}
		previous = win.Start
	}
}

func TestNextExpectedWindow_OneOff(t *testing.T) {
	e := NewEvaluator()

	at := mustTime(t, "2025-03-01T00:00:00Z")
	cfg := &model.ScheduleConfig{ExecuteAt: &at}

	win, ok := e.NextExpectedWindow(cfg, mustTime(t, "2025-02-28T23:00:00Z"))
	require.True(t, ok)
	assert.True(t, win.Start.Equal(at))
	assert.True(t, win.End.Equal(at))

	_, ok = e.NextExpectedWindow(cfg, at.Add(time.Second))
	assert.False(t, ok)
}

func TestNextExpectedWindow_DaysOfWeekFilter(t *testing.T) {
	e := NewEvaluator()

	cfg := recurring("0 0 10 * * *", "UTC")
	cfg.DaysOfWeek = []int{1} // Mondays only

	// 2025-01-01 is a Wednesday; the next Monday is 2025-01-06.
	win, ok := e.NextExpectedWindow(cfg, mustTime(t, "2025-01-01T00:00:00Z"))
	require.True(t, ok)
	assert.True(t, win.Start.Equal(mustTime(t, "2025-01-06T10:00:00Z")))
}

func TestNextExpectedWindow_Exclusions(t *testing.T) {
	e := NewEvaluator()

	cfg := recurring("0 0 10 * * *", "UTC")
	cfg.Exclusions = &model.Exclusions{Dates: []string{"2025-01-02"}}

	win, ok := e.NextExpectedWindow(cfg, mustTime(t, "2025-01-01T11:00:00Z"))
	require.True(t, ok)
	assert.True(t, win.Start.Equal(mustTime(t, "2025-01-03T10:00:00Z")))

	// Weekday exclusion: 2025-01-02 is a Thursday (4).
	cfg.Exclusions = &model.Exclusions{Weekdays: []int{4}}
	win, ok = e.NextExpectedWindow(cfg, mustTime(t, "2025-01-01T11:00:00Z"))
	require.True(t, ok)
	assert.True(t, win.Start.Equal(mustTime(t, "2025-01-03T10:00:00Z")))
}

func TestNextExpectedWindow_AllowListAndExclusionsCombine(t *testing.T) {
	e := NewEvaluator()

	// A day must be in the allow-list AND absent from exclusions.
	cfg := recurring("0 0 10 * * *", "UTC")
	cfg.DaysOfWeek = []int{1, 2} // Monday, Tuesday
	cfg.Exclusions = &model.Exclusions{Dates: []string{"2025-01-06"}} // first Monday

	win, ok := e.NextExpectedWindow(cfg, mustTime(t, "2025-01-01T00:00:00Z"))
	require.True(t, ok)
	assert.True(t, win.Start.Equal(mustTime(t, "2025-01-07T10:00:00Z")))
}

func TestNextExpectedWindow_DSTSpringForwardGap(t *testing.T) {
	e := NewEvaluator()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2025-03-09: clocks jump 02:00 -> 03:00, so 02:30 does not exist that day.
	cfg := recurring("0 30 2 * * *", "America/New_York")
	after := time.Date(2025, 3, 9, 0, 0, 0, 0, loc)

	win, ok := e.NextExpectedWindow(cfg, after)
	require.True(t, ok)
	assert.True(t, win.Start.Equal(time.Date(2025, 3, 10, 2, 30, 0, 0, loc)))
}

func TestNextExpectedWindow_DormantBeyondLookAhead(t *testing.T) {
	e := NewEvaluator()

	cfg := recurring("0 0 10 * * *", "UTC")
	cfg.Exclusions = &model.Exclusions{Weekdays: []int{0, 1, 2, 3, 4, 5, 6}}

	_, ok := e.NextExpectedWindow(cfg, mustTime(t, "2025-01-01T00:00:00Z"))
	assert.False(t, ok)
}

func TestNextExpectedWindow_MalformedInputs(t *testing.T) {
	e := NewEvaluator()
	after := mustTime(t, "2025-01-01T00:00:00Z")

	_, ok := e.NextExpectedWindow(recurring("not a cron", "UTC"), after)
	assert.False(t, ok)

	_, ok = e.NextExpectedWindow(recurring("0 0 10 * * *", "Mars/Olympus"), after)
	assert.False(t, ok)

	bad := recurring("0 0 10 * * *", "UTC")
	bad.TimeRange = &model.TimeRange{Start: "25:99", End: "26:00"}
	_, ok = e.NextExpectedWindow(bad, after)
	assert.False(t, ok)

	_, ok = e.NextExpectedWindow(nil, after)
	assert.False(t, ok)
}

func TestDateHelpers(t *testing.T) {
	ts := mustTime(t, "2025-06-15T23:45:00+07:00")
	assert.Equal(t, "2025-06-15", utils.FormatDate(utils.DateUTC(ts)))
}
