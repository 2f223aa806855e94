package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// State is the scheduler's lifecycle state.
type State string

const (
	StateStopped   State = "stopped"
	StateIdle      State = "idle"      // scheduled, waiting for the next fire
	StateExecuting State = "executing" // a run is in flight
)

// Runner is the unit of work the scheduler fires. The aggregator satisfies
// it through a small adapter in cmd.
type Runner interface {
	RunScheduled(ctx context.Context) error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) RunScheduled(ctx context.Context) error { return f(ctx) }

// cronRunner abstracts the cron engine so tests can fire jobs directly.
type cronRunner interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Entry(id cron.EntryID) cron.Entry
	Start()
	Stop() context.Context
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	State       State      `json:"state"`
	Interval    string     `json:"interval"`
	LastRun     *time.Time `json:"lastRun,omitempty"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
	RunCount    int64      `json:"runCount"`
	SkippedRuns int64      `json:"skippedRuns"`
}

// Scheduler fires the runner on a fixed recurrence with an overlap guard:
// if a fire arrives while a run is still executing, the fire is skipped and
// counted, never queued.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	enabled  bool
	logger   *slog.Logger

	cron    cronRunner
	entryID cron.EntryID

	executing   atomic.Bool
	runCount    atomic.Int64
	skippedRuns atomic.Int64

	mu      sync.Mutex
	state   State
	lastRun *time.Time
}

// New creates a Scheduler around the given runner. enabled=false makes
// Start a no-op, so ad-hoc triggers still work while the recurrence is off.
func New(runner Runner, interval time.Duration, enabled bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		enabled:  enabled,
		logger:   logger,
		cron:     cron.New(),
		state:    StateStopped,
	}
}

// Start registers the recurrence and begins firing. Calling Start while the
// scheduler is already running, or while scraping is disabled, is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		s.logger.Info("scheduler disabled, not starting")
		return nil
	}
	if s.state != StateStopped {
		return nil
	}

	if s.entryID == 0 {
		spec := fmt.Sprintf("@every %s", s.interval)
		id, err := s.cron.AddFunc(spec, s.fire)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", spec, err)
		}
		s.entryID = id
	}
	s.cron.Start()
	s.state = StateIdle

	s.logger.Info("scheduler started", "interval", s.interval.String())
	return nil
}

// Stop halts the recurrence. An in-flight run finishes; nothing new fires.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return
	}
	s.cron.Stop()
	s.state = StateStopped
	s.logger.Info("scheduler stopped")
}

// TriggerNow starts a run immediately in the background, subject to the
// same overlap guard as a scheduled fire. Returns false when a run is
// already executing.
func (s *Scheduler) TriggerNow() bool {
	if !s.claim() {
		return false
	}
	go s.execute()
	return true
}

// fire is the cron callback. Cron already runs it off the caller's
// goroutine, so the run stays synchronous here.
func (s *Scheduler) fire() {
	if !s.claim() {
		return
	}
	s.execute()
}

// claim is the overlap guard: the CAS on the executing flag ensures at most
// one run in flight. A refused fire is counted and dropped, never queued.
func (s *Scheduler) claim() bool {
	if !s.executing.CompareAndSwap(false, true) {
		s.skippedRuns.Add(1)
		s.logger.Warn("run skipped, previous run still executing")
		return false
	}
	return true
}

func (s *Scheduler) execute() {
	defer s.executing.Store(false)

	s.setExecuting(true)
	defer s.setExecuting(false)

	if err := s.runner.RunScheduled(context.Background()); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
	s.runCount.Add(1)

	now := time.Now().UTC()
	s.mu.Lock()
	s.lastRun = &now
	s.mu.Unlock()
}

func (s *Scheduler) setExecuting(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return // ad-hoc trigger while the recurrence is off
	}
	if on {
		s.state = StateExecuting
	} else {
		s.state = StateIdle
	}
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:       s.state,
		Interval:    s.interval.String(),
		LastRun:     s.lastRun,
		RunCount:    s.runCount.Load(),
		SkippedRuns: s.skippedRuns.Load(),
	}
	if s.state != StateStopped {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}
	return st
}
