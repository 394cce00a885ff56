package schedule

import (
	"fmt"
	"time"

	"cronwatch/internal/model"
	"cronwatch/pkg/utils"

	"github.com/robfig/cron/v3"
)

// Window is one expected-execution occurrence derived from a schedule. A
// firing is an instant, so End equals Start; the watchdog's grace period
// widens the acceptance interval, not the window itself.
type Window struct {
	Start time.Time
	End   time.Time
}

const (
	// lookAheadDays bounds the search for the next valid firing. A schedule
	// with no firing inside this horizon is treated as dormant, not as an error.
	lookAheadDays = 366

	// maxIterations caps the candidate loop. Every filtered candidate advances
	// the cursor by at least a time-range jump or a full day, so the horizon is
	// covered well within this bound.
	maxIterations = 1500
)

// Evaluator computes expected execution windows from schedule definitions.
// It is pure and stateless: identical inputs always yield identical outputs.
type Evaluator struct {
	parser cron.Parser
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		parser: cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// NextExpectedWindow returns the earliest expected window starting at or after
// the given instant. The boolean is false when the schedule produces no valid
// firing within the look-ahead horizon, including malformed cron expressions
// and unknown timezones, which are boundary-rejected rather than raised.
//
// Timezone conversion follows the platform rules: a local time erased by a
// spring-forward transition is skipped to the next valid firing, and an
// ambiguous fall-back time resolves to its earlier UTC occurrence.
func (e *Evaluator) NextExpectedWindow(cfg *model.ScheduleConfig, after time.Time) (Window, bool) {
	if cfg == nil {
		return Window{}, false
	}

	if cfg.ExecuteAt != nil {
		at := *cfg.ExecuteAt
		if at.Before(after) {
			return Window{}, false
		}
		return Window{Start: at, End: at}, true
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Window{}, false
	}
	sched, err := e.parser.Parse(cfg.CronExpression)
	if err != nil {
		return Window{}, false
	}

	var rangeStart, rangeEnd int
	if cfg.TimeRange != nil {
		rangeStart, err = parseMinuteOfDay(cfg.TimeRange.Start)
		if err != nil {
			return Window{}, false
		}
		rangeEnd, err = parseMinuteOfDay(cfg.TimeRange.End)
		if err != nil || rangeEnd < rangeStart {
			return Window{}, false
		}
	}

	limit := after.AddDate(0, 0, lookAheadDays)
	t := after.In(loc).Add(-time.Second)

	for i := 0; i < maxIterations; i++ {
		next := sched.Next(t)
		if next.IsZero() || next.After(limit) {
			return Window{}, false
		}
		if next.Before(after) {
			t = next
			continue
		}

		if !dayAllowed(cfg, next) {
			t = utils.StartOfNextDay(next).Add(-time.Second)
			continue
		}

		if cfg.TimeRange != nil {
			minute := next.Hour()*60 + next.Minute()
			switch {
			case minute < rangeStart:
				t = time.Date(next.Year(), next.Month(), next.Day(), rangeStart/60, rangeStart%60, 0, 0, loc).Add(-time.Second)
				continue
			case minute > rangeEnd:
				t = utils.StartOfNextDay(next).Add(-time.Second)
				continue
			}
		}

		return Window{Start: next, End: next}, true
	}

	return Window{}, false
}

func dayAllowed(cfg *model.ScheduleConfig, t time.Time) bool {
	if len(cfg.DaysOfWeek) > 0 && !containsInt(cfg.DaysOfWeek, int(t.Weekday())) {
		return false
	}
	if cfg.Exclusions != nil {
		if containsInt(cfg.Exclusions.Weekdays, int(t.Weekday())) {
			return false
		}
		day := t.Format(utils.DateFormat)
		for _, excluded := range cfg.Exclusions.Dates {
			if excluded == day {
				return false
			}
		}
	}
	return true
}

func parseMinuteOfDay(hhmm string) (int, error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func containsInt(values []int, v int) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
