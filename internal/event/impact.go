package event

import (
	"context"
	"fmt"

	"github.com/bezata/aicity-backend-sub002/internal/city"
	"go.uber.org/zap"
)

// Propagator converts an event's declared impacts into metric updates.
// All of an event's deltas go to the metrics collaborator in a single
// batched call.
type Propagator struct {
	metrics city.MetricsUpdater
	logger  *zap.Logger
}

// NewPropagator creates a propagator over the metrics collaborator.
func NewPropagator(metrics city.MetricsUpdater, logger *zap.Logger) *Propagator {
	return &Propagator{metrics: metrics, logger: logger}
}

// Apply buckets the instance's impact deltas by category and applies
// them in one call.
func (p *Propagator) Apply(ctx context.Context, inst *Instance) error {
	if len(inst.Template.Impacts) == 0 {
		return nil
	}
	if err := p.metrics.Apply(ctx, bucketDeltas(inst.Template.Impacts, 1)); err != nil {
		return fmt.Errorf("apply impacts for event %s: %w", inst.ID, err)
	}
	p.logger.Debug("event impacts applied",
		zap.String("event", inst.ID),
		zap.Int("impacts", len(inst.Template.Impacts)))
	return nil
}

// Revert negates every impact delta in one batched call, returning each
// affected metric delta to exactly zero.
func (p *Propagator) Revert(ctx context.Context, inst *Instance) error {
	if len(inst.Template.Impacts) == 0 {
		return nil
	}
	if err := p.metrics.Apply(ctx, bucketDeltas(inst.Template.Impacts, -1)); err != nil {
		return fmt.Errorf("revert impacts for event %s: %w", inst.ID, err)
	}
	return nil
}

// bucketDeltas folds impacts into a category → metric → delta payload,
// scaled by sign. Multiple impacts on the same metric accumulate.
func bucketDeltas(impacts []Impact, sign float64) map[string]map[string]float64 {
	updates := make(map[string]map[string]float64)
	for _, im := range impacts {
		if updates[im.Category] == nil {
			updates[im.Category] = make(map[string]float64)
		}
		updates[im.Category][im.Metric] += sign * im.Delta
	}
	return updates
}
