package scheduler

import (
	"sync"
	"time"

	"schedkit/internal/eventbus"
	"schedkit/pkg/logx"
)

// Callback is a unit of work invoked at computed instants. Its return is
// nobody's business here: the driver dispatches and moves on, it never
// waits for completion before computing the next deadline.
type Callback func()

// State is a job driver's lifecycle position.
type State int

const (
	StateCreated State = iota
	StateArmed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateArmed:
		return "armed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Job drives one scheduled callback: it computes a deadline, arranges a
// one-shot wake-up, and re-arms itself after every firing.
//
// Deadlines derive from the previous un-jittered deadline, so jitter never
// compounds into drift. Deadlines a stalled callback left in the past are
// skipped, never queued. Re-arming happens before the callback is
// dispatched, so a panicking callback cannot kill the schedule.
type Job struct {
	name   string
	rule   rule
	fn     Callback
	jitter time.Duration

	clock  Clock
	log    logx.Logger
	bus    eventbus.Bus
	randFn func(bound time.Duration) time.Duration

	mu       sync.Mutex
	state    State
	deadline time.Time // un-jittered
	sleep    time.Duration
	timer    Timer
	fires    uint64
	skips    uint64
}

// JobEvent is the bus payload for job lifecycle events.
type JobEvent struct {
	Name     string
	Rule     string
	Deadline time.Time
	Skipped  int
}

func (j *Job) Name() string { return j.name }

// Rule describes the job's timing rule.
func (j *Job) Rule() string { return j.rule.String() }

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Next returns the current un-jittered deadline and the jitter applied on
// top of it; both are zero unless the job is armed.
func (j *Job) Next() (time.Time, time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateArmed {
		return time.Time{}, 0
	}
	return j.deadline, j.sleep
}

// start computes the first deadline and arms the wake-up. Calling it on
// anything but a freshly created job is a no-op.
func (j *Job) start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateCreated {
		return nil
	}
	now := j.clock.Now()
	next, skipped, err := j.rule.first(now)
	if err != nil {
		j.state = StateStopped
		return err
	}
	j.armLocked(now, next, skipped)
	return nil
}

func (j *Job) armLocked(now, next time.Time, skipped int) {
	j.state = StateArmed
	j.deadline = next
	j.sleep = 0
	if j.jitter > 0 && j.randFn != nil {
		j.sleep = j.randFn(j.jitter)
	}
	wake := next.Add(j.sleep)
	j.timer = j.clock.AfterFunc(wake.Sub(now), j.fire)

	if skipped > 0 {
		j.skips += uint64(skipped)
		j.log.Warn("skipped missed runs",
			logx.String("job", j.name),
			logx.Int("skipped", skipped),
			logx.Time("deadline", next))
		j.publish(eventbus.JobSkipped, JobEvent{Name: j.name, Rule: j.rule.String(), Deadline: next, Skipped: skipped})
	}
	j.log.Debug("armed",
		logx.String("job", j.name),
		logx.Time("deadline", next),
		logx.Duration("jitter", j.sleep))
	j.publish(eventbus.JobArmed, JobEvent{Name: j.name, Rule: j.rule.String(), Deadline: next})
}

// fire runs on timer expiry in the timer's goroutine.
func (j *Job) fire() {
	j.mu.Lock()
	if j.state != StateArmed {
		j.mu.Unlock()
		return
	}
	prev := j.deadline
	now := j.clock.Now()

	next, skipped, err := j.rule.next(prev, now)
	switch {
	case err != nil:
		// Internal invariant violation: the rule is broken, not the
		// environment. Stop rather than retry.
		j.state = StateStopped
		j.log.Error("deadline computation failed; stopping job",
			logx.String("job", j.name),
			logx.String("rule", j.rule.String()),
			logx.Time("base", prev),
			logx.Err(err))
		j.publish(eventbus.JobStopped, JobEvent{Name: j.name, Rule: j.rule.String()})
	case !next.After(now):
		j.state = StateStopped
		j.log.Error("computed deadline not in the future; stopping job",
			logx.String("job", j.name),
			logx.String("rule", j.rule.String()),
			logx.Time("base", prev),
			logx.Time("candidate", next))
		j.publish(eventbus.JobStopped, JobEvent{Name: j.name, Rule: j.rule.String()})
	default:
		j.armLocked(now, next, skipped)
	}

	j.fires++
	fn := j.fn
	j.mu.Unlock()

	j.log.Debug("fired", logx.String("job", j.name), logx.Time("deadline", prev))
	j.publish(eventbus.JobFired, JobEvent{Name: j.name, Rule: j.rule.String(), Deadline: prev})

	// Already re-armed; whatever fn does (including panicking) is between
	// it and the process.
	fn()
}

// Stop cancels the pending wake-up. A stopped job never re-arms; there is
// no restart.
func (j *Job) Stop() {
	j.mu.Lock()
	if j.state == StateStopped {
		j.mu.Unlock()
		return
	}
	j.state = StateStopped
	t := j.timer
	j.timer = nil
	j.mu.Unlock()

	if t != nil {
		t.Stop()
	}
	j.log.Debug("stopped", logx.String("job", j.name))
	j.publish(eventbus.JobStopped, JobEvent{Name: j.name, Rule: j.rule.String()})
}

func (j *Job) publish(kind string, data JobEvent) {
	if j.bus != nil {
		j.bus.Publish(eventbus.Event{Type: kind, Data: data})
	}
}
