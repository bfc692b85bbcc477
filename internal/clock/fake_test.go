package clock

import (
	"testing"
	"time"
)

func TestFakeTickerFiresAfterPeriod(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)
	tk := f.NewTicker(time.Hour)

	f.Advance(30 * time.Minute)
	select {
	case <-tk.C():
		t.Fatalf("ticker fired early")
	default:
	}

	f.Advance(30 * time.Minute)
	select {
	case got := <-tk.C():
		if !got.Equal(start.Add(time.Hour)) {
			t.Fatalf("unexpected tick time %v", got)
		}
	default:
		t.Fatalf("ticker did not fire")
	}
}

func TestFakeTickerStop(t *testing.T) {
	t.Parallel()

	f := NewFake(time.Unix(0, 0))
	tk := f.NewTicker(time.Minute)
	if f.Tickers() != 1 {
		t.Fatalf("expected one active ticker")
	}
	tk.Stop()
	f.Advance(time.Hour)

	select {
	case <-tk.C():
		t.Fatalf("stopped ticker fired")
	default:
	}
	if f.Tickers() != 0 {
		t.Fatalf("expected no active tickers")
	}
}
