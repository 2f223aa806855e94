package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

// fakeCron lets tests fire scheduled jobs deterministically.
type fakeCron struct {
	jobs    map[cron.EntryID]func()
	nextID  cron.EntryID
	started bool
}

func newFakeCron() *fakeCron {
	return &fakeCron{jobs: make(map[cron.EntryID]func())}
}

func (f *fakeCron) AddFunc(spec string, cmd func()) (cron.EntryID, error) {
	f.nextID++
	f.jobs[f.nextID] = cmd
	return f.nextID, nil
}

func (f *fakeCron) Entry(id cron.EntryID) cron.Entry {
	return cron.Entry{ID: id, Next: time.Now().Add(time.Hour)}
}

func (f *fakeCron) Start() { f.started = true }

func (f *fakeCron) Stop() context.Context {
	f.started = false
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func (f *fakeCron) fire() {
	for _, job := range f.jobs {
		job()
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(runner Runner, enabled bool) (*Scheduler, *fakeCron) {
	s := New(runner, time.Hour, enabled, discard())
	fc := newFakeCron()
	s.cron = fc
	return s, fc
}

func TestStart_Transitions(t *testing.T) {
	s, fc := newTestScheduler(RunnerFunc(func(ctx context.Context) error { return nil }), true)

	if got := s.Status().State; got != StateStopped {
		t.Fatalf("initial state = %s, want stopped", got)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !fc.started {
		t.Error("cron engine should be running")
	}
	if got := s.Status().State; got != StateIdle {
		t.Errorf("state = %s, want idle", got)
	}
	if s.Status().NextRun == nil {
		t.Error("NextRun should be populated while scheduled")
	}

	// second Start is a no-op, not a double registration
	if err := s.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if len(fc.jobs) != 1 {
		t.Errorf("registered jobs = %d, want 1", len(fc.jobs))
	}

	s.Stop()
	if got := s.Status().State; got != StateStopped {
		t.Errorf("state after Stop = %s, want stopped", got)
	}
	if fc.started {
		t.Error("cron engine should be stopped")
	}
}

func TestStart_DisabledIsNoOp(t *testing.T) {
	s, fc := newTestScheduler(RunnerFunc(func(ctx context.Context) error { return nil }), false)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if fc.started {
		t.Error("disabled scheduler must not start the cron engine")
	}
	if got := s.Status().State; got != StateStopped {
		t.Errorf("state = %s, want stopped", got)
	}
}

func TestFire_RunsAndCounts(t *testing.T) {
	var runs atomic.Int32
	s, fc := newTestScheduler(RunnerFunc(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}), true)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fc.fire()
	fc.fire()

	if runs.Load() != 2 {
		t.Errorf("runner ran %d times, want 2", runs.Load())
	}
	st := s.Status()
	if st.RunCount != 2 {
		t.Errorf("RunCount = %d, want 2", st.RunCount)
	}
	if st.LastRun == nil {
		t.Error("LastRun should be set after a run")
	}
	if st.State != StateIdle {
		t.Errorf("state = %s, want idle after runs complete", st.State)
	}
}

func TestOverlappingFire_SkippedNotQueued(t *testing.T) {
	block := make(chan struct{})
	entered := make(chan struct{})
	s, fc := newTestScheduler(RunnerFunc(func(ctx context.Context) error {
		close(entered)
		<-block
		return nil
	}), true)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	go fc.fire()
	<-entered

	if got := s.Status().State; got != StateExecuting {
		t.Errorf("state = %s, want executing", got)
	}
	if s.TriggerNow() {
		t.Error("TriggerNow during a run must be refused")
	}
	st := s.Status()
	if st.RunCount != 0 {
		t.Errorf("RunCount = %d, overlap must not change it", st.RunCount)
	}
	if st.SkippedRuns != 1 {
		t.Errorf("SkippedRuns = %d, want 1", st.SkippedRuns)
	}

	close(block)
	waitFor(t, func() bool { return s.Status().RunCount == 1 })
	if got := s.Status().State; got != StateIdle {
		t.Errorf("state = %s, want idle after the blocked run finishes", got)
	}
}

func TestTriggerNow_WorksWhileStopped(t *testing.T) {
	var runs atomic.Int32
	s, _ := newTestScheduler(RunnerFunc(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}), false)

	if !s.TriggerNow() {
		t.Fatal("TriggerNow should run when idle")
	}
	waitFor(t, func() bool { return s.Status().RunCount == 1 })
	if runs.Load() != 1 {
		t.Errorf("runner ran %d times, want 1", runs.Load())
	}
	if got := s.Status().State; got != StateStopped {
		t.Errorf("state = %s, ad-hoc run must not change a stopped scheduler", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
