package conversation

import (
	"fmt"
	"strings"

	"github.com/bezata/aicity-backend-sub002/internal/agent"
	"github.com/bezata/aicity-backend-sub002/internal/city"
)

// candidateKind labels where a response template came from.
type candidateKind string

const (
	candidateActivity candidateKind = "activity"
	candidateCultural candidateKind = "cultural"
	candidateSocial   candidateKind = "social"
	candidateLocation candidateKind = "location"
	candidateHistory  candidateKind = "history"
)

// responseCandidate is one templated response under consideration.
type responseCandidate struct {
	kind   candidateKind
	text   string
	topics []string
}

// buildCandidates assembles the templated response candidates for the
// next speaker given the conversation so far.
func buildCandidates(c *Conversation, speaker *agent.Profile) []responseCandidate {
	candidates := []responseCandidate{
		{
			kind:   candidateActivity,
			text:   fmt.Sprintf("How has %s been treating you today?", c.Activity),
			topics: topicsFor(c.Activity),
		},
		{
			kind:   candidateLocation,
			text:   fmt.Sprintf("I always enjoy meeting people here at the %s.", c.Location),
			topics: []string{"city life", c.Activity},
		},
	}

	if len(c.Context.Traditions) > 0 {
		tradition := c.Context.Traditions[0]
		candidates = append(candidates, responseCandidate{
			kind:   candidateCultural,
			text:   fmt.Sprintf("Have you been following %s? The whole district is talking about it.", tradition),
			topics: append([]string{tradition}, c.Context.ActiveEvents...),
		})
	}

	candidates = append(candidates, responseCandidate{
		kind:   candidateSocial,
		text:   "It's good to catch up. How have things been in your part of the city?",
		topics: []string{"community", "neighborhood news"},
	})

	if last := c.LastMessage(); last != nil {
		candidates = append(candidates, responseCandidate{
			kind:   candidateHistory,
			text:   fmt.Sprintf("You mentioned %s earlier, tell me more about that.", c.Topic),
			topics: append([]string{c.Topic}, last.Topics...),
		})
	}

	return candidates
}

// scoreCandidate rates a candidate by topic relevance to the
// conversation plus alignment with the speaker's traits. Deterministic
// for identical inputs.
func scoreCandidate(cand responseCandidate, c *Conversation, speaker *agent.Profile) float64 {
	score := 0.0

	for _, t := range cand.topics {
		if t == c.Topic {
			score += 0.4
			break
		}
	}
	for _, t := range cand.topics {
		for _, interest := range speaker.Interests {
			if t == interest {
				score += 0.2
				break
			}
		}
	}

	switch cand.kind {
	case candidateActivity:
		score += 0.3 * speaker.Traits.Analytical
	case candidateCultural:
		score += 0.3 * speaker.Traits.CulturalOpenness
	case candidateSocial:
		score += 0.3 * speaker.Traits.CommunityOrientation
	case candidateLocation:
		score += 0.3 * speaker.Traits.Curiosity
	case candidateHistory:
		score += 0.3 * speaker.Traits.Empathy
	}

	return score
}

// selectCandidate returns the maximum-scoring candidate. Ties keep the
// earlier candidate so the choice is stable.
func selectCandidate(c *Conversation, speaker *agent.Profile) responseCandidate {
	candidates := buildCandidates(c, speaker)
	best := candidates[0]
	bestScore := scoreCandidate(best, c, speaker)
	for _, cand := range candidates[1:] {
		if s := scoreCandidate(cand, c, speaker); s > bestScore {
			best = cand
			bestScore = s
		}
	}
	return best
}

// extroversionMarkerThreshold is the trait level above which messages
// get an expressive marker appended.
const extroversionMarkerThreshold = 0.7

// personalize applies trait-driven styling to a message.
func personalize(text string, speaker *agent.Profile) string {
	if speaker.Traits.Extroversion > extroversionMarkerThreshold && !strings.HasSuffix(text, "!") {
		return strings.TrimSuffix(text, ".") + "!"
	}
	return text
}

// positive and negative word lists for the sentiment heuristic.
var (
	positiveWords = []string{"good", "great", "enjoy", "love", "wonderful", "happy", "excited", "glad"}
	negativeWords = []string{"bad", "worried", "tired", "problem", "sad", "angry", "awful"}
)

// estimateSentiment scores a message's sentiment in [0,1] from a word
// heuristic anchored on the speaker's enthusiasm.
func estimateSentiment(content string, speaker *agent.Profile) float64 {
	lower := strings.ToLower(content)
	s := 0.4 + 0.2*speaker.Traits.Enthusiasm
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			s += 0.1
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			s -= 0.1
		}
	}
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// deriveTopic picks a conversation topic: a cultural event title takes
// priority, otherwise one is drawn from the activity pool merged with
// the context's traditions.
func deriveTopic(activity string, cctx city.Context, pick func(n int) int) string {
	if len(cctx.ActiveEvents) > 0 {
		return cctx.ActiveEvents[0]
	}
	pool := append(append([]string(nil), topicsFor(activity)...), cctx.Traditions...)
	return pool[pick(len(pool))]
}
