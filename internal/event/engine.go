package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bezata/aicity-backend-sub002/internal/notify"
	"github.com/bezata/aicity-backend-sub002/internal/sim"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEventNotFound is returned when a referenced event id is not in the
// active index.
var ErrEventNotFound = errors.New("event not found")

// Persister receives best-effort writes of generated events.
type Persister interface {
	SaveEvent(ctx context.Context, inst *Instance) error
}

// Engine runs the full event pipeline: selection, district targeting,
// impact propagation and cascade scheduling. Secondary events re-enter
// the same pipeline.
type Engine struct {
	selector   *Selector
	targeter   *Targeter
	propagator *Propagator
	cascades   *CascadeScheduler
	bus        *notify.Bus
	clock      sim.Clock
	persister  Persister // optional

	active    map[string]*Instance
	timeSpeed float64
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewEngine wires the event pipeline together.
func NewEngine(
	selector *Selector,
	targeter *Targeter,
	propagator *Propagator,
	cascades *CascadeScheduler,
	bus *notify.Bus,
	clock sim.Clock,
	persister Persister,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		selector:   selector,
		targeter:   targeter,
		propagator: propagator,
		cascades:   cascades,
		bus:        bus,
		clock:      clock,
		persister:  persister,
		active:     make(map[string]*Instance),
		timeSpeed:  1,
		logger:     logger,
	}
}

// SetTimeSpeed aligns cascade delays with the world clock's speed
// multiplier. Planned delays are simulated durations, so a faster
// world shrinks the wall-clock wait. Non-positive speeds are ignored.
func (e *Engine) SetTimeSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	e.mu.Lock()
	e.timeSpeed = speed
	e.mu.Unlock()
}

func (e *Engine) wallDelay(simDelay time.Duration) time.Duration {
	e.mu.RLock()
	speed := e.timeSpeed
	e.mu.RUnlock()
	return time.Duration(float64(simDelay) / speed)
}

// Generate selects a template for the current simulated time and runs
// it through the pipeline. Always produces an event while at least one
// district is registered.
func (e *Engine) Generate(ctx context.Context) (*Instance, error) {
	tmpl := e.selector.Select(e.clock.Now())
	return e.trigger(ctx, tmpl, 0, "")
}

// Trigger runs a specific template through the pipeline as a primary
// event. Exposed for the API surface and tests.
func (e *Engine) Trigger(ctx context.Context, tmpl Template) (*Instance, error) {
	return e.trigger(ctx, tmpl, 0, "")
}

func (e *Engine) trigger(ctx context.Context, tmpl Template, depth int, parentID string) (*Instance, error) {
	district, err := e.targeter.Target(ctx, tmpl)
	if err != nil {
		return nil, fmt.Errorf("target event %s: %w", tmpl.ID, err)
	}

	inst := &Instance{
		ID:         uuid.New().String(),
		Template:   tmpl,
		DistrictID: district.ID,
		ParentID:   parentID,
		Depth:      depth,
		CreatedAt:  e.clock.Now(),
	}

	// A propagation failure skips this event's metric deltas but never
	// aborts the pipeline.
	if err := e.propagator.Apply(ctx, inst); err != nil {
		e.logger.Warn("impact propagation skipped", zap.String("event", inst.ID), zap.Error(err))
	}

	e.mu.Lock()
	e.active[inst.ID] = inst
	e.mu.Unlock()

	e.bus.Publish(notify.Notification{
		Topic:   notify.TopicEventGenerated,
		Title:   tmpl.Title,
		Body:    fmt.Sprintf("%s in %s", tmpl.Description, district.Name),
		Payload: inst,
	})

	if e.persister != nil {
		go func() {
			pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.persister.SaveEvent(pctx, inst); err != nil {
				e.logger.Warn("event persistence failed",
					zap.String("event", inst.ID), zap.Error(err))
			}
		}()
	}

	e.logger.Info("event generated",
		zap.String("event", inst.ID),
		zap.String("template", tmpl.ID),
		zap.String("district", district.ID),
		zap.Int("depth", depth),
		zap.Float64("severity", tmpl.Severity))

	e.armCascades(inst)
	return inst, nil
}

// armCascades plans secondary events and arms their delay timers. Armed
// timers cannot be revoked.
func (e *Engine) armCascades(inst *Instance) {
	planned := e.cascades.Plan(inst)
	for _, p := range planned {
		p := p
		delay := e.wallDelay(p.Delay)
		e.logger.Info("cascade scheduled",
			zap.String("parent", inst.ID),
			zap.String("template", p.Template.Title),
			zap.Duration("delay", delay))
		time.AfterFunc(delay, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := e.trigger(ctx, p.Template, inst.Depth+1, inst.ID); err != nil {
				e.logger.Warn("cascade emission failed",
					zap.String("parent", inst.ID),
					zap.Error(err))
			}
		})
	}
}

// Resolve reverts an active event's metric deltas in a single batched
// call and removes it from the active index.
func (e *Engine) Resolve(ctx context.Context, id string) error {
	e.mu.RLock()
	inst, ok := e.active[id]
	e.mu.RUnlock()
	if !ok {
		return ErrEventNotFound
	}

	if err := e.propagator.Revert(ctx, inst); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.active, id)
	e.mu.Unlock()

	e.bus.Publish(notify.Notification{
		Topic:   notify.TopicEventResolved,
		Title:   inst.Template.Title,
		Body:    fmt.Sprintf("resolved in district %s", inst.DistrictID),
		Payload: inst,
	})

	e.logger.Info("event resolved", zap.String("event", id))
	return nil
}

// Get returns an active event by id.
func (e *Engine) Get(id string) (*Instance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	inst, ok := e.active[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return inst, nil
}

// Active returns all unresolved events.
func (e *Engine) Active() []*Instance {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Instance, 0, len(e.active))
	for _, inst := range e.active {
		out = append(out, inst)
	}
	return out
}

// ActiveTitles returns the titles of unresolved events, used to refresh
// the cultural context.
func (e *Engine) ActiveTitles() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	titles := make([]string, 0, len(e.active))
	for _, inst := range e.active {
		titles = append(titles, inst.Template.Title)
	}
	return titles
}
