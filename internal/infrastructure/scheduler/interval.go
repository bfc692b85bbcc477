package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"ContentCurator/internal/clock"
	"ContentCurator/internal/ports"
)

// IntervalScheduler runs a job every interval on one goroutine. Ticks that arrive while
// the job is still running are dropped, and so are ticks the gate refuses.
type IntervalScheduler struct {
	clock      clock.Clock
	interval   time.Duration
	runOnStart bool
	gate       Gate

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler driven by clk. A nil clock uses wall time.
func NewIntervalScheduler(clk clock.Clock, interval time.Duration, runOnStart bool) *IntervalScheduler {
	if clk == nil {
		clk = clock.System{}
	}
	return &IntervalScheduler{clock: clk, interval: interval, runOnStart: runOnStart}
}

// WithGate filters ticks through g. The run on start is never gated.
func (s *IntervalScheduler) WithGate(g Gate) *IntervalScheduler {
	s.gate = g
	return s
}

// Start begins ticking. Calling Start on a running scheduler is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	ticker := s.clock.NewTicker(s.interval)

	go func(stop, done chan struct{}) {
		defer close(done)
		defer ticker.Stop()
		if s.runOnStart {
			job(s.clock.Now())
		}
		for {
			select {
			case t := <-ticker.C():
				if s.gate != nil && !s.gate.Allow(t) {
					continue
				}
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}(s.stop, s.done)

	return nil
}

// Stop halts the ticker goroutine and waits for a running job to finish, or for ctx.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
