// Package policy holds the access-decision and unlock-lifecycle rules shared by
// the server and the enforcement agent. Every function here is pure: the
// current instant is always passed in and nothing performs I/O.
package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time within a day in seconds since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from its components.
func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 {
		return 0, invalid("time", "hour must be between 0 and 23")
	}
	if minute < 0 || minute > 59 {
		return 0, invalid("time", "minute must be between 0 and 59")
	}
	if second < 0 || second > 59 {
		return 0, invalid("time", "second must be between 0 and 59")
	}
	return TimeOfDay(hour*3600 + minute*60 + second), nil
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, invalid("time", fmt.Sprintf("%q is not HH:MM or HH:MM:SS", s))
	}

	nums := make([]int, 3)
	for i, p := range parts {
		if len(p) != 2 {
			return 0, invalid("time", fmt.Sprintf("%q is not HH:MM or HH:MM:SS", s))
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, invalid("time", fmt.Sprintf("%q is not HH:MM or HH:MM:SS", s))
		}
		nums[i] = n
	}

	return NewTimeOfDay(nums[0], nums[1], nums[2])
}

// TimeOfDayFromDuration converts an offset from midnight, as stored by a SQL
// TIME column, into a TimeOfDay. Sub-second precision is truncated.
func TimeOfDayFromDuration(d time.Duration) (TimeOfDay, error) {
	if d < 0 || d >= secondsPerDay*time.Second {
		return 0, invalid("time", fmt.Sprintf("offset %s is outside a day", d))
	}
	return TimeOfDay(d / time.Second), nil
}

// TimeOfDayOf returns the wall-clock time of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(h*3600 + m*60 + s)
}

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Second
}

// String renders HH:MM:SS.
func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// TimeWindow is a recurring interval during which access is permitted.
// A nil Day means every day.
type TimeWindow struct {
	ID    string
	Day   *time.Weekday
	Start TimeOfDay
	End   TimeOfDay
}

// NewTimeWindow parses and validates window bounds. day, when set, is 0 (Sunday)
// through 6 (Saturday).
func NewTimeWindow(day *int, start, end string) (TimeWindow, error) {
	var w TimeWindow

	if day != nil {
		if *day < 0 || *day > 6 {
			return TimeWindow{}, invalid("day_of_week", "must be between 0 (Sunday) and 6 (Saturday)")
		}
		wd := time.Weekday(*day)
		w.Day = &wd
	}

	var err error
	if w.Start, err = ParseTimeOfDay(start); err != nil {
		return TimeWindow{}, relabel(err, "start_time")
	}
	if w.End, err = ParseTimeOfDay(end); err != nil {
		return TimeWindow{}, relabel(err, "end_time")
	}

	if err := w.Validate(); err != nil {
		return TimeWindow{}, err
	}
	return w, nil
}

// Validate enforces start < end within the same day.
func (w TimeWindow) Validate() error {
	if w.Day != nil && (*w.Day < time.Sunday || *w.Day > time.Saturday) {
		return invalid("day_of_week", "must be between 0 (Sunday) and 6 (Saturday)")
	}
	if w.Start < 0 || w.End >= secondsPerDay {
		return invalid("time", "outside a single day")
	}
	if w.Start >= w.End {
		return invalid("end_time", "must be after start_time; overnight windows are not supported")
	}
	return nil
}

// Contains reports whether now falls on the window's day and inside [Start, End].
func (w TimeWindow) Contains(now time.Time) bool {
	if w.Day != nil && *w.Day != now.Weekday() {
		return false
	}
	tod := TimeOfDayOf(now)
	return tod >= w.Start && tod <= w.End
}

// IsAccessAllowed decides whether access is permitted at now. An empty window
// set blocks at all times; otherwise access is allowed iff any window contains
// now. Day and time are read from now's location, so callers must convert now
// into the schedule's timezone first.
func IsAccessAllowed(now time.Time, windows []TimeWindow) bool {
	for _, w := range windows {
		if w.Contains(now) {
			return true
		}
	}
	return false
}
