package social

import (
	"context"
	"sync"
	"time"

	"github.com/bezata/aicity-backend-sub002/internal/agent"
	"go.uber.org/zap"
)

// friendSentimentThreshold is the recent-interaction sentiment above
// which two agents are promoted into each other's friend sets.
const friendSentimentThreshold = 0.7

// interactionRetention is how long interactions stay in an agent's
// history before the maintenance task decays them.
const interactionRetention = 24 * time.Hour

// GraphStore mirrors friendships and interactions into an external
// graph. The in-memory friend sets on the agent profiles stay
// authoritative; mirror writes are best effort.
type GraphStore interface {
	RecordFriendship(ctx context.Context, aID, bID string) error
	RecordInteraction(ctx context.Context, fromID, toID string, sentiment float64, summary string) error
	Close(ctx context.Context) error
}

// MemoryGraph is an in-memory GraphStore used when no graph database is
// configured.
type MemoryGraph struct {
	friends      map[string]map[string]struct{}
	interactions int
	mu           sync.RWMutex
}

// NewMemoryGraph creates an empty in-memory graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{friends: make(map[string]map[string]struct{})}
}

// RecordFriendship implements GraphStore.
func (g *MemoryGraph) RecordFriendship(_ context.Context, aID, bID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, pair := range [][2]string{{aID, bID}, {bID, aID}} {
		set := g.friends[pair[0]]
		if set == nil {
			set = make(map[string]struct{})
			g.friends[pair[0]] = set
		}
		set[pair[1]] = struct{}{}
	}
	return nil
}

// RecordInteraction implements GraphStore.
func (g *MemoryGraph) RecordInteraction(_ context.Context, _, _ string, _ float64, _ string) error {
	g.mu.Lock()
	g.interactions++
	g.mu.Unlock()
	return nil
}

// Friends returns the mirrored friend ids for an agent.
func (g *MemoryGraph) Friends(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.friends[id]))
	for f := range g.friends[id] {
		out = append(out, f)
	}
	return out
}

// Close implements GraphStore.
func (g *MemoryGraph) Close(_ context.Context) error { return nil }

// Maintainer runs periodic social graph upkeep: decaying stale
// interaction history and promoting high-sentiment pairs to friends.
type Maintainer struct {
	registry *agent.Registry
	graph    GraphStore
	logger   *zap.Logger
}

// NewMaintainer creates a maintainer over the registry with an optional
// graph mirror (may be nil).
func NewMaintainer(registry *agent.Registry, graph GraphStore, logger *zap.Logger) *Maintainer {
	return &Maintainer{registry: registry, graph: graph, logger: logger}
}

// Run performs one maintenance pass at the given simulated time.
func (m *Maintainer) Run(ctx context.Context, now time.Time) {
	removed := m.registry.DecayInteractions(now.Add(-interactionRetention))
	if removed > 0 {
		m.logger.Debug("decayed stale interactions", zap.Int("removed", removed))
	}

	// Histories are scanned from a copy so conversation completions can
	// keep appending interactions while the pass runs.
	promoted := 0
	for _, snap := range m.registry.SnapshotInteractions() {
		for _, in := range snap.Interactions {
			if in.Sentiment <= friendSentimentThreshold {
				continue
			}
			if _, already := snap.Friends[in.PartnerID]; already {
				continue
			}
			if err := m.registry.AddFriend(snap.AgentID, in.PartnerID); err != nil {
				continue
			}
			_ = m.registry.AddFriend(in.PartnerID, snap.AgentID)
			snap.Friends[in.PartnerID] = struct{}{}
			promoted++

			if m.graph != nil {
				if err := m.graph.RecordFriendship(ctx, snap.AgentID, in.PartnerID); err != nil {
					m.logger.Warn("friendship mirror write failed",
						zap.String("agent", snap.AgentID),
						zap.String("friend", in.PartnerID),
						zap.Error(err))
				}
			}
		}
	}
	if promoted > 0 {
		m.logger.Info("promoted friendships", zap.Int("pairs", promoted))
	}
}
