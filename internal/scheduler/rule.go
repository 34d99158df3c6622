package scheduler

import (
	"errors"
	"fmt"
	"time"

	"schedkit/internal/cronexpr"
	"schedkit/internal/timeutil"
)

// errStalled reports a rule whose step function failed to advance the
// deadline. It is an internal invariant violation, never retried.
var errStalled = errors.New("scheduler: rule failed to advance deadline")

// rule computes deadlines for one job.
//
// first returns the initial deadline, at or after now. next returns the
// deadline following prev, strictly after now; skipped counts periods
// dropped by the catch-up policy (cron rules report at most 1 because the
// exact count is not worth computing there).
type rule interface {
	String() string
	first(now time.Time) (next time.Time, skipped int, err error)
	next(prev, now time.Time) (next time.Time, skipped int, err error)
}

// ---- interval rule ----

type intervalRule struct {
	start time.Time
	fixed time.Duration // when > 0, overrides calendar stepping

	count     int
	unit      timeutil.Unit
	anchorDay int // start's day-of-month, preserved across month clamps
}

// newEveryRule builds an interval rule from an anchor start time and a step
// like "2days" or "hour".
func newEveryRule(start time.Time, every string) (*intervalRule, error) {
	if start.IsZero() {
		return nil, errors.New("scheduler: interval rule needs a start time")
	}
	n, unit, err := timeutil.ParseEvery(every)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return &intervalRule{start: start, count: n, unit: unit, anchorDay: start.Day()}, nil
}

// newFixedRule builds an interval rule with a fixed duration step.
func newFixedRule(start time.Time, d time.Duration) (*intervalRule, error) {
	if start.IsZero() {
		return nil, errors.New("scheduler: interval rule needs a start time")
	}
	if d <= 0 {
		return nil, fmt.Errorf("scheduler: interval must be positive, got %v", d)
	}
	return &intervalRule{start: start, fixed: d}, nil
}

func (r *intervalRule) String() string {
	if r.fixed > 0 {
		return fmt.Sprintf("every %s from %s", r.fixed, r.start.Format(time.RFC3339))
	}
	return fmt.Sprintf("every %d %s from %s", r.count, r.unit, r.start.Format(time.RFC3339))
}

func (r *intervalRule) step(t time.Time) time.Time {
	if r.fixed > 0 {
		return t.Add(r.fixed)
	}
	return timeutil.AddStep(t, r.unit, r.count, r.anchorDay)
}

func (r *intervalRule) first(now time.Time) (time.Time, int, error) {
	// A start in the future is the first deadline as-is; otherwise advance
	// along the step pattern to the first occurrence at or after now.
	if r.fixed > 0 && r.start.Before(now) {
		k := (now.Sub(r.start) + r.fixed - 1) / r.fixed
		return r.start.Add(time.Duration(k) * r.fixed), int(k), nil
	}

	t := r.start
	skipped := 0
	for t.Before(now) {
		n := r.step(t)
		if !n.After(t) {
			return time.Time{}, 0, fmt.Errorf("%w: %s at %v", errStalled, r, t)
		}
		t = n
		skipped++
	}
	return t, skipped, nil
}

func (r *intervalRule) next(prev, now time.Time) (time.Time, int, error) {
	// Fixed steps skip arithmetically; calendar steps walk.
	if r.fixed > 0 {
		t := prev.Add(r.fixed)
		if t.After(now) {
			return t, 0, nil
		}
		k := now.Sub(t)/r.fixed + 1
		return t.Add(time.Duration(k) * r.fixed), int(k), nil
	}

	t := r.step(prev)
	if !t.After(prev) {
		return time.Time{}, 0, fmt.Errorf("%w: %s at %v", errStalled, r, prev)
	}
	skipped := 0
	for !t.After(now) {
		t = r.step(t)
		skipped++
	}
	return t, skipped, nil
}

// ---- cron rule ----

type cronRule struct {
	sched *cronexpr.Schedule
}

// newCronRule parses expr eagerly so malformed expressions fail at
// registration, never at first fire.
func newCronRule(expr string) (cronRule, error) {
	s, err := cronexpr.Parse(expr)
	if err != nil {
		return cronRule{}, err
	}
	return cronRule{sched: s}, nil
}

func (r cronRule) String() string { return "cron " + r.sched.String() }

func (r cronRule) first(now time.Time) (time.Time, int, error) {
	t, err := r.sched.Next(now)
	return t, 0, err
}

func (r cronRule) next(prev, now time.Time) (time.Time, int, error) {
	t, err := r.sched.Next(prev)
	if err != nil {
		return time.Time{}, 0, err
	}
	if t.After(now) {
		return t, 0, nil
	}
	// Stale: the callback overran at least one period. Re-anchor on the
	// clock instead of firing a catch-up burst.
	t, err = r.sched.Next(now)
	return t, 1, err
}
