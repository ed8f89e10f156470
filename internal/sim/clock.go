package sim

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Clock is the single time source for the simulation. Components read
// simulated time from it instead of the wall clock so tests can drive
// time manually.
type Clock interface {
	Now() time.Time
}

// TickListener receives world tick events.
type TickListener interface {
	OnTick(worldTime time.Time)
}

// WorldClock drives the simulation with a configurable tick rate and
// time speed multiplier.
type WorldClock struct {
	speed     float64 // time multiplier, 1.0 = realtime
	interval  time.Duration
	listeners []TickListener
	worldTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc
	logger    *zap.Logger
}

// NewWorldClock creates a clock with the given tick interval and speed multiplier.
func NewWorldClock(interval time.Duration, speed float64, logger *zap.Logger) *WorldClock {
	return &WorldClock{
		speed:     speed,
		interval:  interval,
		worldTime: time.Now(),
		logger:    logger,
	}
}

// AddListener registers a tick listener.
func (c *WorldClock) AddListener(l TickListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Now implements Clock.
func (c *WorldClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.worldTime
}

// SetSpeed changes the time multiplier.
func (c *WorldClock) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = speed
}

// Start begins the tick loop in a background goroutine.
func (c *WorldClock) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.loop(ctx)
	c.logger.Info("world clock started",
		zap.Duration("interval", c.interval),
		zap.Float64("speed", c.speed))
}

// Stop halts the tick loop.
func (c *WorldClock) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.logger.Info("world clock stopped")
	}
}

func (c *WorldClock) loop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *WorldClock) tick() {
	c.mu.Lock()
	c.worldTime = c.worldTime.Add(
		time.Duration(float64(c.interval) * c.speed),
	)
	wt := c.worldTime
	listeners := make([]TickListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l.OnTick(wt)
	}
}

// ManualClock is a Clock whose time only moves when Advance is called.
// Used by tests to drive scheduler tasks deterministically.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock creates a manual clock starting at the given time.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now implements Clock.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set jumps the clock to an absolute time.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
