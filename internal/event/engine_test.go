package event

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bezata/aicity-backend-sub002/internal/city"
	"github.com/bezata/aicity-backend-sub002/internal/notify"
	"github.com/bezata/aicity-backend-sub002/internal/sim"
)

func newTestEngine(t *testing.T, rng sim.Rand) (*Engine, *city.Metrics, *notify.Bus) {
	t.Helper()
	logger := zap.NewNop()

	directory := city.NewDirectory(logger)
	directory.Register(&city.District{ID: "riverside", Name: "Riverside", Type: city.DistrictResidential})

	metrics := city.NewMetrics(city.DefaultMetrics(), logger)
	bus := notify.NewBus(logger)
	clock := sim.NewManualClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	engine := NewEngine(
		NewSelector(DefaultCatalog(), rng),
		NewTargeter(directory, nil, rng, logger),
		NewPropagator(metrics, logger),
		NewCascadeScheduler(rng, 3, logger),
		bus, clock, nil, logger,
	)
	return engine, metrics, bus
}

func TestTriggerAppliesImpactsAndIndexes(t *testing.T) {
	// Float64 0.99 makes every cascade trial fail so no timers arm.
	rng := &scriptedRand{floats: []float64{0.99}, ints: []int{0}}
	engine, metrics, bus := newTestEngine(t, rng)
	events := bus.Subscribe(notify.TopicEventGenerated)

	tmpl := DefaultCatalog()[0] // public-health-alert
	inst, err := engine.Trigger(context.Background(), tmpl)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if inst.DistrictID != "riverside" {
		t.Errorf("district = %s, want riverside", inst.DistrictID)
	}
	if inst.Depth != 0 {
		t.Errorf("depth = %d, want 0 for primary", inst.Depth)
	}

	if got := metrics.Get("social", "healthcareAccessScore"); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("healthcareAccessScore = %f, want 0.5 after -0.3", got)
	}
	if got := metrics.Get("sustainability", "airQualityIndex"); math.Abs(got-300) > 1e-9 {
		t.Errorf("airQualityIndex = %f, want 300 after +200", got)
	}

	select {
	case n := <-events:
		if n.Topic != notify.TopicEventGenerated {
			t.Errorf("topic = %s, want eventGenerated", n.Topic)
		}
	default:
		t.Error("expected an eventGenerated notification")
	}

	if _, err := engine.Get(inst.ID); err != nil {
		t.Errorf("get active event: %v", err)
	}
	if got := len(engine.Active()); got != 1 {
		t.Errorf("active = %d, want 1", got)
	}
}

func TestResolveRevertsMetrics(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0.99}, ints: []int{0}}
	engine, metrics, bus := newTestEngine(t, rng)
	resolved := bus.Subscribe(notify.TopicEventResolved)

	baseline := metrics.Get("social", "healthcareAccessScore")
	inst, err := engine.Trigger(context.Background(), DefaultCatalog()[0])
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}

	if err := engine.Resolve(context.Background(), inst.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if got := metrics.Get("social", "healthcareAccessScore"); math.Abs(got-baseline) > 1e-9 {
		t.Errorf("healthcareAccessScore = %f, want baseline %f", got, baseline)
	}
	if len(engine.Active()) != 0 {
		t.Error("resolved event still in active index")
	}
	if _, err := engine.Get(inst.ID); err != ErrEventNotFound {
		t.Errorf("err = %v, want ErrEventNotFound", err)
	}

	select {
	case <-resolved:
	default:
		t.Error("expected an eventResolved notification")
	}
}

func TestResolveUnknownEvent(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0.99}, ints: []int{0}}
	engine, _, _ := newTestEngine(t, rng)
	if err := engine.Resolve(context.Background(), "missing"); err != ErrEventNotFound {
		t.Fatalf("err = %v, want ErrEventNotFound", err)
	}
}

func TestGenerateSelectsForSimulatedTime(t *testing.T) {
	// Selector picks from the morning bucket at 09:00; first Intn draw
	// chooses the template, second chooses the district.
	rng := &scriptedRand{floats: []float64{0.99}, ints: []int{0}}
	engine, _, _ := newTestEngine(t, rng)

	inst, err := engine.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if inst.Template.PreferredTime != Morning {
		t.Errorf("preferred time = %s, want a morning template at 09:00", inst.Template.PreferredTime)
	}
}

func TestActiveTitles(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0.99}, ints: []int{0}}
	engine, _, _ := newTestEngine(t, rng)

	if _, err := engine.Trigger(context.Background(), DefaultCatalog()[2]); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	titles := engine.ActiveTitles()
	if len(titles) != 1 || titles[0] != "Street Festival" {
		t.Errorf("titles = %v, want [Street Festival]", titles)
	}
}

func TestCascadeDelayScalesWithTimeSpeed(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0.99}, ints: []int{0}}
	engine, _, _ := newTestEngine(t, rng)

	if got := engine.wallDelay(30 * time.Minute); got != 30*time.Minute {
		t.Errorf("delay at default speed = %s, want 30m", got)
	}

	engine.SetTimeSpeed(60)
	if got := engine.wallDelay(30 * time.Minute); got != 30*time.Second {
		t.Errorf("delay at speed 60 = %s, want 30s", got)
	}

	// Bad speeds leave the current multiplier alone.
	engine.SetTimeSpeed(0)
	engine.SetTimeSpeed(-2)
	if got := engine.wallDelay(time.Hour); got != time.Minute {
		t.Errorf("delay after bad speeds = %s, want 1m", got)
	}
}
