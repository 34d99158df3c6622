package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// UnixFloat converts t to seconds since the Unix epoch with microsecond
// precision. All deadline comparisons in this repo happen in this single
// linear space; calendar representations only appear at rule boundaries.
func UnixFloat(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// FromUnixFloat is the inverse of UnixFloat, truncated to microseconds.
func FromUnixFloat(ts float64) time.Time {
	return time.UnixMicro(int64(ts * 1e6))
}

// Unit is a calendar step unit for interval schedules.
type Unit int

const (
	Second Unit = iota
	Minute
	Hour
	Day
	Week
	Month
)

func (u Unit) String() string {
	switch u {
	case Second:
		return "second"
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return "unit(" + strconv.Itoa(int(u)) + ")"
	}
}

var unitNames = map[string]Unit{
	"second": Second,
	"minute": Minute,
	"hour":   Hour,
	"day":    Day,
	"week":   Week,
	"month":  Month,
}

// Accepts "2days", "15minutes", "hour", "3weeks"; the count defaults to 1
// and a trailing plural "s" is ignored.
var everyPattern = regexp.MustCompile(`^(\d+)?([a-z]+?)s?$`)

// ParseEvery parses an interval step like "2days" or "hour" into a count and
// a calendar unit.
func ParseEvery(s string) (int, Unit, error) {
	m := everyPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, 0, fmt.Errorf("timeutil: invalid every %q", s)
	}
	n := 1
	if m[1] != "" {
		v, err := strconv.Atoi(m[1])
		if err != nil || v < 1 {
			return 0, 0, fmt.Errorf("timeutil: invalid every count in %q", s)
		}
		n = v
	}
	unit, ok := unitNames[m[2]]
	if !ok {
		return 0, 0, fmt.Errorf("timeutil: unknown every unit %q", m[2])
	}
	return n, unit, nil
}

// LastDay returns the last calendar day of the given month.
func LastDay(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

// AddStep adds n units to t.
//
// Month steps carry years and keep anchorDay as the day-of-month where it
// exists, clamping down to the last valid day otherwise (Jan 31 + 1 month
// is Feb 28, or Feb 29 in leap years). anchorDay <= 0 means "use t's day",
// which loses the anchor after the first clamp; callers that step
// repeatedly should pass the schedule's original day.
func AddStep(t time.Time, unit Unit, n int, anchorDay int) time.Time {
	switch unit {
	case Second:
		return t.Add(time.Duration(n) * time.Second)
	case Minute:
		return t.Add(time.Duration(n) * time.Minute)
	case Hour:
		return t.Add(time.Duration(n) * time.Hour)
	case Day:
		return t.AddDate(0, 0, n)
	case Week:
		return t.AddDate(0, 0, 7*n)
	case Month:
		if anchorDay <= 0 {
			anchorDay = t.Day()
		}
		first := time.Date(t.Year(), t.Month()+time.Month(n), 1,
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		day := anchorDay
		if last := LastDay(first.Year(), first.Month()); day > last {
			day = last
		}
		return first.AddDate(0, 0, day-1)
	default:
		return t
	}
}
