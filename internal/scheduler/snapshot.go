package scheduler

import (
	"time"

	"schedkit/internal/timeutil"
)

// JobInfo is a point-in-time view of one job for diagnostics.
type JobInfo struct {
	Name     string
	Rule     string
	State    string
	Deadline time.Time // un-jittered; zero unless armed
	// DeadlineUnix is Deadline in the linear timestamp space, handy for
	// diffing against epoch-based host timers.
	DeadlineUnix float64
	Jitter       time.Duration
	Fires        uint64
	Skips        uint64
}

// Snapshot returns diagnostics for all registered jobs in registration
// order.
func (s *Service) Snapshot() []JobInfo {
	s.mu.Lock()
	jobs := append([]*Job(nil), s.jobs...)
	s.mu.Unlock()

	infos := make([]JobInfo, 0, len(jobs))
	for _, j := range jobs {
		j.mu.Lock()
		info := JobInfo{
			Name:     j.name,
			Rule:     j.rule.String(),
			State:    j.state.String(),
			Deadline: j.deadline,
			Jitter:   j.sleep,
			Fires:    j.fires,
			Skips:    j.skips,
		}
		if j.state != StateArmed {
			info.Deadline = time.Time{}
			info.Jitter = 0
		}
		j.mu.Unlock()

		if !info.Deadline.IsZero() {
			info.DeadlineUnix = timeutil.UnixFloat(info.Deadline)
		}
		infos = append(infos, info)
	}
	return infos
}
