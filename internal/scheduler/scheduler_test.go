package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethanadams/sigv4probe/internal/config"
	"github.com/ethanadams/sigv4probe/internal/probe"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRunner) RunProbe(_ context.Context, p *config.Probe) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p.Name)
	return f.err
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSchedulerStartSkipsDisabledProbes(t *testing.T) {
	cfg := &config.Config{
		Probes: []config.Probe{
			{Name: "disabled-one", Enabled: false, Schedule: "*/5 * * * *"},
		},
	}
	runner := &fakeRunner{}
	s := New(cfg, map[string]probe.Runner{"http": runner})
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if runner.callCount() != 0 {
		t.Fatalf("expected no calls, got %d", runner.callCount())
	}
}

func TestSchedulerStartSkipsUnknownExecutor(t *testing.T) {
	cfg := &config.Config{
		Probes: []config.Probe{
			{Name: "weird-executor", Enabled: true, Executor: "ftp", Schedule: "*/5 * * * *"},
		},
	}
	runner := &fakeRunner{}
	s := New(cfg, map[string]probe.Runner{"http": runner})
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if runner.callCount() != 0 {
		t.Fatalf("expected no calls for unknown executor, got %d", runner.callCount())
	}
}

func TestSchedulerRunNowInvokesMatchingProbe(t *testing.T) {
	cfg := &config.Config{
		Probes: []config.Probe{
			{Name: "adhoc-probe", Enabled: true, Executor: "http", Schedule: "@every 1h"},
		},
	}
	runner := &fakeRunner{}
	s := New(cfg, map[string]probe.Runner{"http": runner})

	if err := s.RunNow(context.Background(), "adhoc-probe"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if runner.callCount() != 1 {
		t.Fatalf("expected 1 call, got %d", runner.callCount())
	}
}

func TestSchedulerRunNowReturnsErrorForUnknownProbe(t *testing.T) {
	cfg := &config.Config{}
	s := New(cfg, map[string]probe.Runner{})

	if err := s.RunNow(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected error for unknown probe name")
	}
}

func TestSchedulerStartRunsEnabledProbeOnFastSchedule(t *testing.T) {
	cfg := &config.Config{
		Probes: []config.Probe{
			{Name: "every-second", Enabled: true, Executor: "http", Schedule: "@every 1s"},
		},
	}
	runner := &fakeRunner{}
	s := New(cfg, map[string]probe.Runner{"http": runner})
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if runner.callCount() > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("expected probe to run at least once within 3s")
}
