package agent

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAgentNotFound is returned when a referenced agent id is not registered.
var ErrAgentNotFound = errors.New("agent not found")

// Registry holds every registered agent profile for the process lifetime.
type Registry struct {
	agents map[string]*Profile
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewRegistry creates an empty agent registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		agents: make(map[string]*Profile),
		logger: logger,
	}
}

// Register adds a profile, assigning an id and empty social profile if
// missing. Re-registering an id replaces the stored profile.
func (r *Registry) Register(p *Profile) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Social == nil {
		p.Social = &SocialProfile{Friends: make(map[string]struct{})}
	}
	if p.Social.Friends == nil {
		p.Social.Friends = make(map[string]struct{})
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	r.mu.Lock()
	r.agents[p.ID] = p
	r.mu.Unlock()

	r.logger.Info("agent registered",
		zap.String("agent", p.ID),
		zap.String("name", p.Name),
		zap.String("district", p.DistrictID))
}

// Get returns the profile for an id.
func (r *Registry) Get(id string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.agents[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return p, nil
}

// List returns all registered profiles.
func (r *Registry) List() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Profile, 0, len(r.agents))
	for _, p := range r.agents {
		out = append(out, p)
	}
	return out
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// ActivityBuckets partitions all agents by district and by the activity
// their routine assigns for the given hour. Agents with no matching
// routine entry land in the ActivityIdle bucket.
func (r *Registry) ActivityBuckets(hour int) map[string]map[string][]*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buckets := make(map[string]map[string][]*Profile)
	for _, p := range r.agents {
		district := buckets[p.DistrictID]
		if district == nil {
			district = make(map[string][]*Profile)
			buckets[p.DistrictID] = district
		}
		activity := p.ActivityFor(hour)
		district[activity] = append(district[activity], p)
	}
	return buckets
}

// SetRoutine replaces an agent's routine wholesale.
func (r *Registry) SetRoutine(id string, routine []RoutineEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.agents[id]
	if !ok {
		return ErrAgentNotFound
	}
	p.Social.Routine = routine
	return nil
}

// RecordInteraction appends an interaction to an agent's bounded history.
func (r *Registry) RecordInteraction(id string, in Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.agents[id]
	if !ok {
		return ErrAgentNotFound
	}
	p.Social.Interactions = append(p.Social.Interactions, in)
	if n := len(p.Social.Interactions); n > maxInteractionHistory {
		p.Social.Interactions = p.Social.Interactions[n-maxInteractionHistory:]
	}
	return nil
}

// DecayInteractions drops interactions older than the cutoff for every
// agent and returns how many were removed.
func (r *Registry) DecayInteractions(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, p := range r.agents {
		kept := p.Social.Interactions[:0]
		for _, in := range p.Social.Interactions {
			if in.Timestamp.After(cutoff) {
				kept = append(kept, in)
			} else {
				removed++
			}
		}
		p.Social.Interactions = kept
	}
	return removed
}

// InteractionSnapshot pairs an agent id with copies of its interaction
// history and friend set, taken under the registry lock.
type InteractionSnapshot struct {
	AgentID      string
	Interactions []Interaction
	Friends      map[string]struct{}
}

// SnapshotInteractions copies every agent's interaction history and
// friend set in one pass, for callers that scan them outside the lock.
func (r *Registry) SnapshotInteractions() []InteractionSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]InteractionSnapshot, 0, len(r.agents))
	for _, p := range r.agents {
		ins := make([]Interaction, len(p.Social.Interactions))
		copy(ins, p.Social.Interactions)
		friends := make(map[string]struct{}, len(p.Social.Friends))
		for f := range p.Social.Friends {
			friends[f] = struct{}{}
		}
		out = append(out, InteractionSnapshot{AgentID: p.ID, Interactions: ins, Friends: friends})
	}
	return out
}

// AddFriend records a one-way friendship reference.
func (r *Registry) AddFriend(id, friendID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.agents[id]
	if !ok {
		return ErrAgentNotFound
	}
	p.Social.Friends[friendID] = struct{}{}
	return nil
}
