// Package schedule parses and enumerates the dates and matchup IDs that drive
// a scrape run. Malformed input is reported as a *ScheduleError before any
// store is touched.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 day format used for every store key
const DateLayout = "2006-01-02"

// ScheduleError reports a malformed date, range or matchup ID
type ScheduleError struct {
	Input  string
	Reason string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule input %q: %s", e.Input, e.Reason)
}

// ParseDate parses a YYYY-MM-DD day in UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ScheduleError{Input: s, Reason: "expected YYYY-MM-DD"}
	}
	return t, nil
}

// Format renders a day as a store key
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to midnight UTC of its calendar day
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Range returns every day from start to end inclusive as store keys.
// end before start is a ScheduleError.
func Range(start, end time.Time) ([]string, error) {
	first, last := Day(start), Day(end)
	if last.Before(first) {
		return nil, &ScheduleError{
			Input:  Format(first) + ".." + Format(last),
			Reason: "end is before start",
		}
	}

	dates := make([]string, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, Format(d))
	}
	return dates, nil
}

// ParseRange parses both ends and enumerates the days between them
func ParseRange(start, end string) ([]string, error) {
	s, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	return Range(s, e)
}

// PreviousDay returns the key of the day before key
func PreviousDay(key string) (string, error) {
	d, err := ParseDate(key)
	if err != nil {
		return "", err
	}
	return Format(d.AddDate(0, 0, -1)), nil
}

// ParseMatchupID validates a numeric matchup identifier
func ParseMatchupID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, &ScheduleError{Input: s, Reason: "matchup ID must be a positive integer"}
	}
	return id, nil
}
