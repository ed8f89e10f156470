package event

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
)

func cascadingInstance(depth int) *Instance {
	return &Instance{
		ID:    "evt-primary",
		Depth: depth,
		Template: Template{
			ID:       "public-health-alert",
			Title:    "Public Health Alert",
			Severity: 0.8,
			Impacts: []Impact{
				{Category: "social", Metric: "healthcareAccessScore", Delta: -0.3, Duration: 48 * time.Hour},
			},
			RequiredAgents: []string{"medic", "inspector", "coordinator"},
			Cascade: &CascadeSpec{
				Probability:   0.6,
				RelatedEvents: []string{"Clinic Overcrowding", "School Closure"},
				Spread:        SpreadExponential,
			},
		},
	}
}

func TestPlanSpawnsOnePerRelatedEvent(t *testing.T) {
	s := NewCascadeScheduler(&scriptedRand{floats: []float64{0.1}}, 3, zap.NewNop())

	planned := s.Plan(cascadingInstance(0))
	if len(planned) != 2 {
		t.Fatalf("planned = %d, want one per related event", len(planned))
	}
	if planned[0].Template.Title != "Clinic Overcrowding" {
		t.Errorf("first secondary = %q, want Clinic Overcrowding", planned[0].Template.Title)
	}
}

func TestPlanBernoulliFailure(t *testing.T) {
	// 0.7 >= probability 0.6: the trial fails.
	s := NewCascadeScheduler(&scriptedRand{floats: []float64{0.7}}, 3, zap.NewNop())
	if planned := s.Plan(cascadingInstance(0)); planned != nil {
		t.Fatalf("planned = %v, want nil on failed trial", planned)
	}
}

func TestPlanDepthBound(t *testing.T) {
	s := NewCascadeScheduler(&scriptedRand{floats: []float64{0.0}}, 3, zap.NewNop())
	if planned := s.Plan(cascadingInstance(2)); planned != nil {
		t.Fatalf("planned = %v, want nil at depth bound", planned)
	}
	// One level below the bound still cascades.
	if planned := s.Plan(cascadingInstance(1)); len(planned) == 0 {
		t.Fatal("expected cascades below the depth bound")
	}
}

func TestPlanNoCascadeSpec(t *testing.T) {
	s := NewCascadeScheduler(&scriptedRand{floats: []float64{0.0}}, 3, zap.NewNop())
	inst := &Instance{ID: "evt", Template: Template{ID: "plain"}}
	if planned := s.Plan(inst); planned != nil {
		t.Fatalf("planned = %v, want nil without cascade spec", planned)
	}
}

func TestDeriveSecondaryAttenuation(t *testing.T) {
	primary := cascadingInstance(0).Template
	secondary := deriveSecondary(primary, "Clinic Overcrowding")

	if math.Abs(secondary.Severity-0.64) > 1e-9 {
		t.Errorf("severity = %f, want 0.64", secondary.Severity)
	}
	if got := secondary.Impacts[0].Delta; math.Abs(got-(-0.21)) > 1e-9 {
		t.Errorf("delta = %f, want -0.21", got)
	}
	if got := secondary.Impacts[0].Duration; got != 24*time.Hour {
		t.Errorf("duration = %s, want 24h", got)
	}
	if len(secondary.RequiredAgents) != 2 {
		t.Errorf("required agents = %d, want truncated to 2", len(secondary.RequiredAgents))
	}
	if secondary.Cascade == nil {
		t.Error("secondary should inherit the cascade spec")
	}
	if secondary.ID == primary.ID {
		t.Error("secondary must get its own template id")
	}
	// The primary template is untouched.
	if primary.Impacts[0].Delta != -0.3 {
		t.Errorf("primary delta mutated to %f", primary.Impacts[0].Delta)
	}
}

func TestDelayForSpreadPatterns(t *testing.T) {
	s := NewCascadeScheduler(&scriptedRand{floats: []float64{0.5}}, 3, zap.NewNop())

	if got := s.delayFor(SpreadExponential); got != 30*time.Minute {
		t.Errorf("exponential delay = %s, want 30m for rng 0.5", got)
	}
	if got := s.delayFor(SpreadLinear); got != linearDelay {
		t.Errorf("linear delay = %s, want %s", got, linearDelay)
	}
	if got := s.delayFor(SpreadClustered); got != linearDelay {
		t.Errorf("clustered delay = %s, want %s", got, linearDelay)
	}
}
