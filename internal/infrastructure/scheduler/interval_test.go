package scheduler

import (
	"context"
	"testing"
	"time"

	"ContentCurator/internal/clock"
)

var start = time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)

func waitFor(t *testing.T, runs <-chan time.Time) time.Time {
	t.Helper()
	select {
	case at := <-runs:
		return at
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not run")
	}
	return time.Time{}
}

func TestIntervalSchedulerRunsOnStartAndEachInterval(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(start)
	s := NewIntervalScheduler(fake, 6*time.Hour, true)
	runs := make(chan time.Time, 4)

	if err := s.Start(context.Background(), func(at time.Time) { runs <- at }); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if got := waitFor(t, runs); !got.Equal(start) {
		t.Fatalf("expected initial run at %v, got %v", start, got)
	}

	fake.Advance(6 * time.Hour)
	if got := waitFor(t, runs); !got.Equal(start.Add(6 * time.Hour)) {
		t.Fatalf("unexpected tick time %v", got)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if fake.Tickers() != 0 {
		t.Fatalf("ticker not stopped")
	}
}

func TestIntervalSchedulerWithoutInitialRun(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(start)
	s := NewIntervalScheduler(fake, time.Hour, false)
	runs := make(chan time.Time, 1)

	if err := s.Start(context.Background(), func(at time.Time) { runs <- at }); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	select {
	case <-runs:
		t.Fatalf("job ran before the first interval")
	case <-time.After(50 * time.Millisecond):
	}

	fake.Advance(time.Hour)
	waitFor(t, runs)
	_ = s.Stop(context.Background())
}

func TestIntervalSchedulerStartIsIdempotent(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(start)
	s := NewIntervalScheduler(fake, time.Hour, false)
	job := func(time.Time) {}

	if err := s.Start(context.Background(), job); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := s.Start(context.Background(), job); err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}
	if fake.Tickers() != 1 {
		t.Fatalf("expected one ticker, got %d", fake.Tickers())
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
}

func TestIntervalSchedulerRejectsZeroInterval(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(clock.NewFake(start), 0, false)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}

func TestIntervalSchedulerStopsWithContext(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(start)
	s := NewIntervalScheduler(fake, time.Hour, false)
	ctx, cancel := context.WithCancel(context.Background())

	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for fake.Tickers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("scheduler goroutine did not exit after cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = s.Stop(context.Background())
}
