package social

import (
	"sort"

	"github.com/bezata/aicity-backend-sub002/internal/agent"
	"github.com/bezata/aicity-backend-sub002/internal/city"
	"github.com/bezata/aicity-backend-sub002/internal/sim"
)

// Candidate is a scored agent in a compatibility ranking.
type Candidate struct {
	Agent *agent.Profile
	Score float64
}

// Scorer ranks idle agents for a shared interaction. Scoring is
// deterministic for identical inputs; the only random step is group
// sizing.
type Scorer struct {
	rng sim.Rand
}

// NewScorer creates a scorer drawing group sizes from rng.
func NewScorer(rng sim.Rand) *Scorer {
	return &Scorer{rng: rng}
}

// Score computes a single agent's compatibility for an activity within
// the current cultural context.
func (s *Scorer) Score(p *agent.Profile, activity string, cctx city.Context) float64 {
	score := 0.3*p.Traits.Extroversion +
		0.2*p.Traits.CulturalOpenness +
		0.2*p.Traits.CommunityOrientation

	if p.HasActivity(activity) {
		score += 0.2
	}
	if interestsMatchContext(p.Interests, cctx) {
		score += 0.3
	}
	return score
}

// Rank scores every candidate and sorts descending. Ties break on agent
// id so identical inputs always yield the same ranking.
func (s *Scorer) Rank(candidates []*agent.Profile, activity string, cctx city.Context) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, p := range candidates {
		ranked = append(ranked, Candidate{Agent: p, Score: s.Score(p, activity, cctx)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Agent.ID < ranked[j].Agent.ID
	})
	return ranked
}

// SelectGroup ranks the candidates and takes a group of 2-3 from the
// front of the ranking. Group size is uniform random within what the
// candidate pool allows. Returns nil when fewer than two candidates
// exist.
func (s *Scorer) SelectGroup(candidates []*agent.Profile, activity string, cctx city.Context) []*agent.Profile {
	if len(candidates) < 2 {
		return nil
	}
	ranked := s.Rank(candidates, activity, cctx)

	size := 2 + s.rng.Intn(2) // 2 or 3
	if size > len(ranked) {
		size = len(ranked)
	}

	group := make([]*agent.Profile, size)
	for i := 0; i < size; i++ {
		group[i] = ranked[i].Agent
	}
	return group
}

// interestsMatchContext reports whether any interest appears among the
// context's active traditions or cultural events.
func interestsMatchContext(interests []string, cctx city.Context) bool {
	for _, interest := range interests {
		for _, t := range cctx.Traditions {
			if interest == t {
				return true
			}
		}
		for _, e := range cctx.ActiveEvents {
			if interest == e {
				return true
			}
		}
	}
	return false
}
