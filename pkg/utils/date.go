package utils

import "time"

// DateFormat is the canonical calendar-date layout used for stat keys.
const DateFormat = "2006-01-02"

// DateUTC truncates t to its UTC calendar date.
func DateUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// TodayUTC returns the current UTC calendar date.
func TodayUTC() time.Time {
	return DateUTC(time.Now())
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// ParseDate parses a YYYY-MM-DD string into a UTC date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}

// StartOfNextDay returns midnight of the day after t, in t's location.
func StartOfNextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
