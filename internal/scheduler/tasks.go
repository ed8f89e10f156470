package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/bezata/aicity-backend-sub002/internal/agent"
	"github.com/bezata/aicity-backend-sub002/internal/city"
	"github.com/bezata/aicity-backend-sub002/internal/conversation"
	"github.com/bezata/aicity-backend-sub002/internal/event"
	"github.com/bezata/aicity-backend-sub002/internal/sim"
	"github.com/bezata/aicity-backend-sub002/internal/social"
	"go.uber.org/zap"
)

// Task intervals, in simulated time.
const (
	activityInterval    = time.Minute
	discoveryInterval   = 2 * time.Minute
	maintenanceInterval = time.Hour
	agingInterval       = 30 * time.Second
	eventInterval       = 10 * time.Minute
	retentionInterval   = time.Hour
)

// Conversation probability model for the discovery task.
const (
	baseConversationRate = 0.2
	maxConversationRate  = 0.9
	culturalBonus        = 0.1
)

// activityModifiers adjusts the conversation rate per activity bucket.
var activityModifiers = map[string]float64{
	"social_time":      0.4,
	"lunch_break":      0.3,
	"shopping":         0.1,
	"morning_exercise": 0.1,
	"work":             -0.1,
	"rest":             -0.2,
}

// Tasks bundles the engine components the periodic tasks operate on.
type Tasks struct {
	registry   *agent.Registry
	routines   *agent.RoutineGenerator
	scorer     *social.Scorer
	maintainer *social.Maintainer
	manager    *conversation.Manager
	events     *event.Engine
	culture    *city.Culture
	rng        sim.Rand
	logger     *zap.Logger

	// Latest activity partitioning: districtID -> activity -> agents.
	buckets   map[string]map[string][]*agent.Profile
	bucketsMu sync.RWMutex

	retention time.Duration
}

// NewTasks creates the task bundle. retention controls how long
// completed conversations stay in memory.
func NewTasks(
	registry *agent.Registry,
	routines *agent.RoutineGenerator,
	scorer *social.Scorer,
	maintainer *social.Maintainer,
	manager *conversation.Manager,
	events *event.Engine,
	culture *city.Culture,
	rng sim.Rand,
	retention time.Duration,
	logger *zap.Logger,
) *Tasks {
	if retention <= 0 {
		retention = 6 * time.Hour
	}
	return &Tasks{
		registry:   registry,
		routines:   routines,
		scorer:     scorer,
		maintainer: maintainer,
		manager:    manager,
		events:     events,
		culture:    culture,
		rng:        rng,
		buckets:    make(map[string]map[string][]*agent.Profile),
		retention:  retention,
		logger:     logger,
	}
}

// RegisterAll adds every periodic task to the scheduler.
func (t *Tasks) RegisterAll(s *Scheduler) {
	s.Register(Task{Name: "activity-reassignment", Interval: activityInterval, Run: t.ReassignActivities})
	s.Register(Task{Name: "conversation-discovery", Interval: discoveryInterval, Run: t.DiscoverConversations})
	s.Register(Task{Name: "social-graph-maintenance", Interval: maintenanceInterval, Run: t.MaintainSocialGraph})
	s.Register(Task{Name: "conversation-aging", Interval: agingInterval, Run: t.AgeConversations})
	s.Register(Task{Name: "event-generation", Interval: eventInterval, Run: t.GenerateEvent})
	s.Register(Task{Name: "retention", Interval: retentionInterval, Run: t.EvictExpired})
}

// ReassignActivities partitions agents by district and current-hour
// activity, generating routines for agents that have none yet.
func (t *Tasks) ReassignActivities(ctx context.Context, now time.Time) {
	for _, p := range t.registry.List() {
		if len(p.Social.Routine) == 0 {
			routine := t.routines.Generate(ctx, p)
			if err := t.registry.SetRoutine(p.ID, routine); err != nil {
				t.logger.Warn("routine assignment failed",
					zap.String("agent", p.ID), zap.Error(err))
			}
		}
	}

	buckets := t.registry.ActivityBuckets(now.Hour())
	t.bucketsMu.Lock()
	t.buckets = buckets
	t.bucketsMu.Unlock()
}

// DiscoverConversations walks the latest activity buckets and, per
// bucket with at least two idle agents, rolls the conversation
// probability and opens a conversation with a compatibility-selected
// group.
func (t *Tasks) DiscoverConversations(ctx context.Context, now time.Time) {
	cctx := t.culture.Snapshot()

	t.bucketsMu.RLock()
	buckets := t.buckets
	t.bucketsMu.RUnlock()

	for districtID, activities := range buckets {
		for activity, members := range activities {
			idle := make([]*agent.Profile, 0, len(members))
			for _, p := range members {
				if !t.manager.IsActive(p.ID) {
					idle = append(idle, p)
				}
			}
			if len(idle) < 2 {
				continue
			}

			if t.rng.Float64() >= t.conversationProbability(activity, cctx) {
				continue
			}

			group := t.scorer.SelectGroup(idle, activity, cctx)
			if group == nil {
				continue
			}
			if _, err := t.manager.Open(ctx, group, activity, districtID, cctx); err != nil {
				t.logger.Warn("conversation open failed",
					zap.String("district", districtID),
					zap.String("activity", activity),
					zap.Error(err))
			}
		}
	}
}

// conversationProbability combines the base rate, the activity modifier
// and contextual mood/cultural bonuses, capped at maxConversationRate.
func (t *Tasks) conversationProbability(activity string, cctx city.Context) float64 {
	p := baseConversationRate + activityModifiers[activity]
	p += (cctx.Mood - 0.5) * 0.2
	if len(cctx.Traditions) > 0 || len(cctx.ActiveEvents) > 0 {
		p += culturalBonus
	}
	if p < 0 {
		p = 0
	}
	if p > maxConversationRate {
		p = maxConversationRate
	}
	return p
}

// MaintainSocialGraph decays stale interactions and promotes
// high-sentiment pairs to friends.
func (t *Tasks) MaintainSocialGraph(ctx context.Context, now time.Time) {
	t.maintainer.Run(ctx, now)
}

// AgeConversations forces a continuation on idle conversations and
// completes stale ones.
func (t *Tasks) AgeConversations(ctx context.Context, now time.Time) {
	continued, completed := t.manager.Age(ctx, now)
	if continued > 0 || completed > 0 {
		t.logger.Debug("conversations aged",
			zap.Int("continued", continued),
			zap.Int("completed", completed))
	}
}

// GenerateEvent runs one pass of the event pipeline and refreshes the
// cultural context with the current active event titles.
func (t *Tasks) GenerateEvent(ctx context.Context, now time.Time) {
	if _, err := t.events.Generate(ctx); err != nil {
		t.logger.Warn("event generation failed", zap.Error(err))
	}
	t.culture.SetActiveEvents(t.events.ActiveTitles())
}

// EvictExpired drops completed conversations past the retention window.
func (t *Tasks) EvictExpired(_ context.Context, now time.Time) {
	if evicted := t.manager.EvictCompleted(now.Add(-t.retention)); evicted > 0 {
		t.logger.Info("evicted completed conversations", zap.Int("count", evicted))
	}
}
