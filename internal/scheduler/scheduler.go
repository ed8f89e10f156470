package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a named periodic job driven by the world clock. Run bodies
// execute to completion before the same task fires again; distinct
// tasks run concurrently.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time)
}

// taskTimeout bounds a single task run so a stuck collaborator call
// cannot wedge the task forever.
const taskTimeout = 45 * time.Second

type taskState struct {
	task    Task
	lastRun time.Time
	running bool
}

// Scheduler fires registered tasks from world clock ticks. Each task
// is isolated: a panic or error in one never halts the others.
type Scheduler struct {
	tasks  []*taskState
	mu     sync.Mutex
	logger *zap.Logger
}

// New creates an empty scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Register adds a named task.
func (s *Scheduler) Register(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, &taskState{task: t})
	s.logger.Info("task registered",
		zap.String("task", t.Name),
		zap.Duration("interval", t.Interval))
}

// TaskNames returns the registered task names in registration order.
func (s *Scheduler) TaskNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.tasks))
	for i, ts := range s.tasks {
		names[i] = ts.task.Name
	}
	return names
}

// OnTick implements sim.TickListener. Due tasks fire on their own
// goroutines; a task that is still running is skipped until it
// finishes.
func (s *Scheduler) OnTick(worldTime time.Time) {
	s.mu.Lock()
	var due []*taskState
	for _, ts := range s.tasks {
		if ts.running {
			continue
		}
		if ts.lastRun.IsZero() {
			ts.lastRun = worldTime
			continue
		}
		if worldTime.Sub(ts.lastRun) >= ts.task.Interval {
			ts.lastRun = worldTime
			ts.running = true
			due = append(due, ts)
		}
	}
	s.mu.Unlock()

	for _, ts := range due {
		go s.run(ts, worldTime)
	}
}

// RunNow fires a task by name immediately, bypassing the interval
// check. Used by the API surface and tests.
func (s *Scheduler) RunNow(name string, now time.Time) bool {
	s.mu.Lock()
	var target *taskState
	for _, ts := range s.tasks {
		if ts.task.Name == name && !ts.running {
			ts.running = true
			ts.lastRun = now
			target = ts
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return false
	}
	s.run(target, now)
	return true
}

func (s *Scheduler) run(ts *taskState, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked",
				zap.String("task", ts.task.Name),
				zap.Any("panic", r))
		}
		s.mu.Lock()
		ts.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	start := time.Now()
	ts.task.Run(ctx, now)
	s.logger.Debug("task completed",
		zap.String("task", ts.task.Name),
		zap.Duration("took", time.Since(start)))
}
