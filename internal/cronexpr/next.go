package cronexpr

import (
	"errors"
	"fmt"
	"time"

	"schedkit/internal/timeutil"
)

// maxIterations bounds the outer date search. Each iteration advances at
// least a day (a whole month when the month field excludes it), so valid
// but rare dates like Feb 29 stay well inside the bound; only a genuinely
// unsatisfiable schedule trips it.
const maxIterations = 1000

// ErrUnsatisfiable is returned when Next exhausts its search bound. It
// indicates a bug in the expression (e.g. "0 0 31 2 *"), not a transient
// condition.
var ErrUnsatisfiable = errors.New("cronexpr: no matching time within search bound")

// Next returns the smallest instant strictly after base that matches the
// schedule, at minute resolution, in base's location.
//
// Day-of-month and day-of-week combine with OR when both are constrained,
// matching classic crontab behavior.
func (s *Schedule) Next(base time.Time) (time.Time, error) {
	loc := base.Location()
	// Strictly after: truncate to the minute, then advance one minute.
	t := time.Date(base.Year(), base.Month(), base.Day(), base.Hour(), base.Minute(), 0, 0, loc).
		Add(time.Minute)

	for i := 0; i < maxIterations; i++ {
		if s.month&bit(int(t.Month())) == 0 {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
			continue
		}
		if !s.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
			continue
		}

		// Date-level fields match; scan time-of-day. If the scan rolls
		// past midnight the date search restarts from the new day.
		day := t.Day()
		for t.Day() == day {
			switch {
			case s.hour&bit(t.Hour()) == 0:
				t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc)
			case s.minute&bit(t.Minute()) == 0:
				t = t.Add(time.Minute)
			default:
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q after %v", ErrUnsatisfiable, s.source, base)
}

func (s *Schedule) dayMatches(t time.Time) bool {
	dom := s.dom&bit(t.Day()) != 0 ||
		(s.domLast && t.Day() == timeutil.LastDay(t.Year(), t.Month()))
	dow := s.dow&bit(int(t.Weekday())) != 0

	switch {
	case s.domStar && s.dowStar:
		return true
	case s.domStar:
		return dow
	case s.dowStar:
		return dom
	default:
		return dom || dow
	}
}
