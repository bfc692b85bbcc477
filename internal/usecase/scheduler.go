package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ContentCurator/internal/ports"
)

// watermarkOverlap is re-read behind each adapter's watermark so date-only notices and
// late pubDates are still picked up. Dedup absorbs the repeats.
const watermarkOverlap = 24 * time.Hour

// Scheduler wires the periodic driver with the refresh use case. Each adapter keeps its
// own watermark: the start of its last successful run.
type Scheduler struct {
	driver  ports.Scheduler
	refresh *Refresh
	logger  *slog.Logger

	mu         sync.Mutex
	watermarks map[string]time.Time
}

// NewScheduler returns a helper to start/stop recurring refresh runs.
func NewScheduler(driver ports.Scheduler, refresh *Refresh, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, refresh: refresh, logger: logger, watermarks: make(map[string]time.Time)}
}

// Start registers the refresh run with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.refresh == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	})
}

// RunOnce performs one scheduled run. Adapters without a watermark use the lookback
// window; the others resume from their watermark minus the overlap. Only adapters that
// succeeded advance, and a failed store write advances none.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) {
	window := Window{Default: trigger.Add(-s.refresh.lookback), PerAdapter: make(map[string]time.Time)}
	s.mu.Lock()
	for name, mark := range s.watermarks {
		window.PerAdapter[name] = mark.Add(-watermarkOverlap)
	}
	s.mu.Unlock()

	report, err := s.refresh.RunWindow(ctx, window)
	if err != nil {
		s.logger.Error("scheduled refresh failed", "trigger", trigger, "run_id", report.RunID, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stats := range report.Adapters {
		if stats.Err != nil {
			s.logger.Warn("watermark kept after adapter failure", "adapter", stats.Name, "watermark", s.watermarks[stats.Name])
			continue
		}
		if report.StartedAt.After(s.watermarks[stats.Name]) {
			s.watermarks[stats.Name] = report.StartedAt
		}
	}
}

// Watermark returns the adapter's watermark; zero until it has succeeded once.
func (s *Scheduler) Watermark(adapter string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermarks[adapter]
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
