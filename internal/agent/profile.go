package agent

import (
	"time"
)

// Traits is an agent's personality vector. All scores are in [0,1].
type Traits struct {
	Analytical           float64 `json:"analytical"`
	Creativity           float64 `json:"creativity"`
	Empathy              float64 `json:"empathy"`
	Curiosity            float64 `json:"curiosity"`
	Enthusiasm           float64 `json:"enthusiasm"`
	Extroversion         float64 `json:"extroversion"`
	CulturalOpenness     float64 `json:"cultural_openness"`
	CommunityOrientation float64 `json:"community_orientation"`
}

// RoutineEntry is a single scheduled slot in an agent's daily routine.
// Entries are immutable once generated; a routine is only ever replaced
// wholesale.
type RoutineEntry struct {
	TimeSlot          int      `json:"time_slot"` // hour of day, 0-23
	Activity          string   `json:"activity"`
	Location          string   `json:"location"`
	Topics            []string `json:"topics"`
	SocialProbability float64  `json:"social_probability"` // 0-1
}

// Interaction records one completed exchange with another agent.
type Interaction struct {
	PartnerID string    `json:"partner_id"`
	Sentiment float64   `json:"sentiment"`
	Timestamp time.Time `json:"timestamp"`
}

// maxInteractionHistory bounds the per-agent recent interaction list.
const maxInteractionHistory = 50

// SocialProfile holds an agent's social state: friendships (weak
// references by id), the daily routine, and a bounded interaction
// history.
type SocialProfile struct {
	Friends      map[string]struct{} `json:"friends"`
	Routine      []RoutineEntry      `json:"routine"`
	Interactions []Interaction       `json:"interactions"`
}

// Profile is a registered city resident. Created on registration,
// mutated by the scheduler on each tick, never destroyed.
type Profile struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	DistrictID string         `json:"district_id"`
	Traits     Traits         `json:"traits"`
	Interests  []string       `json:"interests"`
	Social     *SocialProfile `json:"social"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ActivityIdle is the bucket for agents with no routine entry for the
// current hour.
const ActivityIdle = "idle"

// ActivityFor returns the activity the routine assigns for the given
// hour, or ActivityIdle when no entry matches.
func (p *Profile) ActivityFor(hour int) string {
	for _, e := range p.Social.Routine {
		if e.TimeSlot == hour {
			return e.Activity
		}
	}
	return ActivityIdle
}

// RoutineFor returns the routine entry for the given hour, or nil.
func (p *Profile) RoutineFor(hour int) *RoutineEntry {
	for i := range p.Social.Routine {
		if p.Social.Routine[i].TimeSlot == hour {
			return &p.Social.Routine[i]
		}
	}
	return nil
}

// HasActivity reports whether any routine entry lists the activity.
func (p *Profile) HasActivity(activity string) bool {
	for _, e := range p.Social.Routine {
		if e.Activity == activity {
			return true
		}
	}
	return false
}
