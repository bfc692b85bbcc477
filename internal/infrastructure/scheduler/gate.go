package scheduler

import (
	"sync"
	"time"
)

// Gate decides whether a tick runs the job.
type Gate interface {
	Allow(at time.Time) bool
}

// BusinessHours passes weekday ticks whose local hour is within [StartHour, EndHour]
// and spaces weekend runs at least WeekendEvery apart. WeekendEvery <= 0 skips weekends.
type BusinessHours struct {
	StartHour    int
	EndHour      int
	WeekendEvery time.Duration
	Location     *time.Location

	mu          sync.Mutex
	lastWeekend time.Time
}

// Allow implements Gate.
func (b *BusinessHours) Allow(at time.Time) bool {
	loc := b.Location
	if loc == nil {
		loc = time.UTC
	}
	local := at.In(loc)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		if b.WeekendEvery <= 0 {
			return false
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.lastWeekend.IsZero() && at.Sub(b.lastWeekend) < b.WeekendEvery {
			return false
		}
		b.lastWeekend = at
		return true
	}

	hour := local.Hour()
	return hour >= b.StartHour && hour <= b.EndHour
}
