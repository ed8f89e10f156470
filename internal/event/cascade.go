package event

import (
	"strings"
	"time"

	"github.com/bezata/aicity-backend-sub002/internal/sim"
	"go.uber.org/zap"
)

// Secondary event derivation factors.
const (
	cascadeSeverityFactor = 0.8
	cascadeDeltaFactor    = 0.7
	cascadeDurationFactor = 0.5
	cascadeMaxAgents      = 2
)

// linearDelay is the fixed emission delay for linear and clustered
// spread patterns.
const linearDelay = 30 * time.Minute

// PlannedCascade is one secondary event due for emission after a delay.
type PlannedCascade struct {
	Template Template
	Delay    time.Duration
}

// CascadeScheduler derives secondary events from a primary's cascade
// spec. A configurable depth bound keeps a cascade chain from running
// away.
type CascadeScheduler struct {
	rng      sim.Rand
	maxDepth int
	logger   *zap.Logger
}

// DefaultMaxCascadeDepth bounds cascade chains unless configured
// otherwise.
const DefaultMaxCascadeDepth = 3

// NewCascadeScheduler creates a cascade scheduler. maxDepth <= 0 uses
// the default bound.
func NewCascadeScheduler(rng sim.Rand, maxDepth int, logger *zap.Logger) *CascadeScheduler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCascadeDepth
	}
	return &CascadeScheduler{rng: rng, maxDepth: maxDepth, logger: logger}
}

// Plan draws one Bernoulli trial with the cascade's probability and, on
// success, returns one planned secondary event per related label.
// Returns nil when the event has no cascade spec, the trial fails, or
// the depth bound is reached.
func (s *CascadeScheduler) Plan(inst *Instance) []PlannedCascade {
	spec := inst.Template.Cascade
	if spec == nil || len(spec.RelatedEvents) == 0 {
		return nil
	}
	if inst.Depth+1 >= s.maxDepth {
		s.logger.Info("cascade depth bound reached",
			zap.String("event", inst.ID),
			zap.Int("depth", inst.Depth))
		return nil
	}
	if s.rng.Float64() >= spec.Probability {
		return nil
	}

	planned := make([]PlannedCascade, 0, len(spec.RelatedEvents))
	for _, label := range spec.RelatedEvents {
		planned = append(planned, PlannedCascade{
			Template: deriveSecondary(inst.Template, label),
			Delay:    s.delayFor(spec.Spread),
		})
	}
	return planned
}

// delayFor returns the emission delay for a spread pattern: uniform in
// [0, 1h) for exponential, fixed 30 minutes otherwise.
func (s *CascadeScheduler) delayFor(spread SpreadPattern) time.Duration {
	if spread == SpreadExponential {
		return time.Duration(s.rng.Float64() * float64(time.Hour))
	}
	return linearDelay
}

// deriveSecondary synthesizes a secondary template from the primary:
// severity ×0.8, impact deltas ×0.7, durations ×0.5, required agents
// truncated to the first two. The secondary inherits the primary's
// cascade spec so it can cascade further, subject to the depth bound.
func deriveSecondary(primary Template, label string) Template {
	secondary := primary
	secondary.ID = primary.ID + ":" + slugify(label)
	secondary.Title = label
	secondary.Description = label + " following " + primary.Title
	secondary.Severity = primary.Severity * cascadeSeverityFactor

	secondary.Impacts = make([]Impact, len(primary.Impacts))
	for i, im := range primary.Impacts {
		im.Delta *= cascadeDeltaFactor
		im.Duration = time.Duration(float64(im.Duration) * cascadeDurationFactor)
		secondary.Impacts[i] = im
	}

	if len(primary.RequiredAgents) > cascadeMaxAgents {
		secondary.RequiredAgents = primary.RequiredAgents[:cascadeMaxAgents]
	}
	return secondary
}

func slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}
