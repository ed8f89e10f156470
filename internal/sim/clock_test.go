package sim

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type tickRecorder struct {
	mu    sync.Mutex
	times []time.Time
}

func (r *tickRecorder) OnTick(worldTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, worldTime)
}

func (r *tickRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.times)
}

func TestManualClockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}
	after := clock.Advance(30 * time.Minute)
	if want := start.Add(30 * time.Minute); !after.Equal(want) {
		t.Errorf("Advance returned %v, want %v", after, want)
	}
	if !clock.Now().Equal(after) {
		t.Errorf("Now() = %v, want %v after advance", clock.Now(), after)
	}

	jump := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(jump)
	if !clock.Now().Equal(jump) {
		t.Errorf("Now() = %v, want %v after set", clock.Now(), jump)
	}
}

func TestWorldClockTicksListeners(t *testing.T) {
	clock := NewWorldClock(5*time.Millisecond, 60.0, zap.NewNop())
	rec := &tickRecorder{}
	clock.AddListener(rec)

	before := clock.Now()
	clock.Start()
	defer clock.Stop()

	deadline := time.After(2 * time.Second)
	for rec.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("got %d ticks before deadline, want at least 3", rec.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if !clock.Now().After(before) {
		t.Error("expected world time to advance")
	}
}

func TestWorldClockSpeedMultiplier(t *testing.T) {
	interval := 10 * time.Millisecond
	clock := NewWorldClock(interval, 120.0, zap.NewNop())
	before := clock.Now()

	clock.tick()

	if got, want := clock.Now().Sub(before), time.Duration(float64(interval)*120.0); got != want {
		t.Errorf("one tick advanced %v, want %v", got, want)
	}
}
