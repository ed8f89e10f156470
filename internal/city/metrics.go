package city

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MetricsUpdater applies a batched, nested partial update keyed by
// category then metric name. Each value is a delta added to the current
// metric value. One call per event, idempotent from the caller's point
// of view within that batch.
type MetricsUpdater interface {
	Apply(ctx context.Context, updates map[string]map[string]float64) error
}

// Metrics is the in-memory simulated metric tree. Ratio metrics (those
// whose baseline is at most 1) read as clamped to [0,1]; index metrics
// read as floored at 0. Stored values stay unclamped so stacked deltas
// revert exactly.
type Metrics struct {
	values    map[string]map[string]float64
	baselines map[string]map[string]float64
	mu        sync.RWMutex
	logger    *zap.Logger
}

// DefaultMetrics is the baseline metric tree for a fresh city.
func DefaultMetrics() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"safety": {
			"crimeRate":          0.2,
			"emergencyResponse":  0.8,
			"publicTrustScore":   0.7,
		},
		"social": {
			"healthcareAccessScore": 0.8,
			"educationQualityIndex": 0.75,
			"communityWellbeing":    0.7,
		},
		"economy": {
			"employmentRate":    0.9,
			"businessActivity":  0.75,
			"marketStability":   0.8,
		},
		"sustainability": {
			"airQualityIndex":   100,
			"greenSpaceIndex":   0.6,
			"renewableShare":    0.4,
		},
		"infrastructure": {
			"trafficCongestion":     0.4,
			"publicTransitLoad":     0.5,
			"maintenanceBacklog":    0.3,
		},
	}
}

// NewMetrics creates a metric tree seeded with the given baselines.
func NewMetrics(baselines map[string]map[string]float64, logger *zap.Logger) *Metrics {
	values := make(map[string]map[string]float64, len(baselines))
	base := make(map[string]map[string]float64, len(baselines))
	for cat, metrics := range baselines {
		values[cat] = make(map[string]float64, len(metrics))
		base[cat] = make(map[string]float64, len(metrics))
		for name, v := range metrics {
			values[cat][name] = v
			base[cat][name] = v
		}
	}
	return &Metrics{values: values, baselines: base, logger: logger}
}

// Apply implements MetricsUpdater. Unknown categories and metrics are
// created on first write with a zero baseline.
func (m *Metrics) Apply(_ context.Context, updates map[string]map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for cat, metrics := range updates {
		if m.values[cat] == nil {
			m.values[cat] = make(map[string]float64)
			m.baselines[cat] = make(map[string]float64)
		}
		for name, delta := range metrics {
			next := m.values[cat][name] + delta
			m.values[cat][name] = next
			m.logger.Debug("metric updated",
				zap.String("category", cat),
				zap.String("metric", name),
				zap.Float64("delta", delta),
				zap.Float64("value", m.clamp(cat, name, next)))
		}
	}
	return nil
}

// Get returns the current clamped value of a metric. Missing metrics
// read as 0.
func (m *Metrics) Get(category, name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clamp(category, name, m.values[category][name])
}

// Snapshot returns a deep copy of the full metric tree with every value
// clamped to its domain.
func (m *Metrics) Snapshot() map[string]map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]map[string]float64, len(m.values))
	for cat, metrics := range m.values {
		out[cat] = make(map[string]float64, len(metrics))
		for name, v := range metrics {
			out[cat][name] = m.clamp(cat, name, v)
		}
	}
	return out
}

// clamp enforces a metric's domain: ratio metrics stay in [0,1], index
// metrics stay non-negative. Caller must hold the lock.
func (m *Metrics) clamp(category, name string, v float64) float64 {
	if v < 0 {
		return 0
	}
	if m.baselines[category][name] <= 1 && v > 1 {
		return 1
	}
	return v
}
