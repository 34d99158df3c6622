package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"schedkit/internal/eventbus"
	"schedkit/pkg/logx"
)

// ErrStarted is returned when registration or StartAll happens after the
// registry has already been started. StartAll is a single-call API.
var ErrStarted = errors.New("scheduler: already started")

type Config struct {
	// JitterMax caps per-job jitter. Zero means no cap.
	JitterMax time.Duration
}

// Service is the process-wide registry of scheduled jobs. Jobs are
// appended during a registration phase and armed together by StartAll, in
// registration order.
type Service struct {
	cfg   Config
	log   logx.Logger
	bus   eventbus.Bus
	clock Clock

	rngMu sync.Mutex
	rng   *rand.Rand

	mu      sync.Mutex
	jobs    []*Job
	started bool
}

type Option func(*Service)

// WithClock substitutes the timer source; tests use a manual clock.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

type JobOption func(*Job)

// WithJitter adds a uniformly-random delay in [0, bound] to every computed
// deadline of the job, first arm included.
func WithJitter(bound time.Duration) JobOption {
	return func(j *Job) {
		if bound > 0 {
			j.jitter = bound
		}
	}
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus, opts ...Option) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		cfg:   cfg,
		log:   log,
		bus:   bus,
		clock: realClock{},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddCron registers a job driven by a crontab expression (or @-alias).
// The expression is parsed here; a malformed one never reaches arming.
func (s *Service) AddCron(name, expr string, fn Callback, opts ...JobOption) (*Job, error) {
	r, err := newCronRule(expr)
	if err != nil {
		return nil, err
	}
	return s.add(name, r, fn, opts)
}

// AddEvery registers a job anchored at startAt stepping by a calendar
// expression like "2days", "hour" or "3months".
func (s *Service) AddEvery(name string, startAt time.Time, every string, fn Callback, opts ...JobOption) (*Job, error) {
	r, err := newEveryRule(startAt, every)
	if err != nil {
		return nil, err
	}
	return s.add(name, r, fn, opts)
}

// AddInterval registers a job anchored at startAt stepping by a fixed
// duration.
func (s *Service) AddInterval(name string, startAt time.Time, d time.Duration, fn Callback, opts ...JobOption) (*Job, error) {
	r, err := newFixedRule(startAt, d)
	if err != nil {
		return nil, err
	}
	return s.add(name, r, fn, opts)
}

func (s *Service) add(name string, r rule, fn Callback, opts []JobOption) (*Job, error) {
	if name == "" {
		return nil, errors.New("scheduler: job name required")
	}
	if fn == nil {
		return nil, fmt.Errorf("scheduler: job %q has no callback", name)
	}

	j := &Job{
		name:   name,
		rule:   r,
		fn:     fn,
		clock:  s.clock,
		log:    s.log,
		bus:    s.bus,
		randFn: s.jitterIn,
	}
	for _, o := range opts {
		o(j)
	}
	if s.cfg.JitterMax > 0 && j.jitter > s.cfg.JitterMax {
		j.jitter = s.cfg.JitterMax
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, ErrStarted
	}
	s.jobs = append(s.jobs, j)

	s.log.Debug("job registered", logx.String("job", name), logx.String("rule", r.String()))
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.JobRegistered, Data: JobEvent{Name: name, Rule: r.String()}})
	}
	return j, nil
}

// StartAll arms every registered job in registration order. A job whose
// first deadline cannot be computed aborts the whole start; this is a
// construction error, surfaced before anything fires.
func (s *Service) StartAll() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrStarted
	}
	s.started = true
	jobs := append([]*Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, j := range jobs {
		if err := j.start(); err != nil {
			return fmt.Errorf("scheduler: starting %q: %w", j.name, err)
		}
	}
	s.log.Info("scheduler started", logx.Int("jobs", len(jobs)))
	return nil
}

// Stop stops every job. Safe to call at any point, once or more.
func (s *Service) Stop() {
	s.mu.Lock()
	jobs := append([]*Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, j := range jobs {
		j.Stop()
	}
	s.log.Info("scheduler stopped", logx.Int("jobs", len(jobs)))
}

// jitterIn returns a uniformly-random duration in [0, bound].
func (s *Service) jitterIn(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return time.Duration(s.rng.Int63n(int64(bound) + 1))
}
