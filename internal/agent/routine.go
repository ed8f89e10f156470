package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bezata/aicity-backend-sub002/internal/textgen"
	"go.uber.org/zap"
)

// RoutineGenerator builds daily routines, preferring the text generator
// and falling back to a static template when it fails.
type RoutineGenerator struct {
	gen    textgen.Generator
	logger *zap.Logger
}

// NewRoutineGenerator creates a routine generator. gen may be nil, in
// which case only the static template is used.
func NewRoutineGenerator(gen textgen.Generator, logger *zap.Logger) *RoutineGenerator {
	return &RoutineGenerator{gen: gen, logger: logger}
}

// Generate produces a full daily routine for the profile. Failures from
// the text generator are logged and answered with the static template,
// never propagated.
func (g *RoutineGenerator) Generate(ctx context.Context, p *Profile) []RoutineEntry {
	if g.gen == nil {
		return StaticRoutine()
	}

	prompt := routinePrompt(p)
	raw, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("routine generation failed, using static template",
			zap.String("agent", p.ID),
			zap.Error(err))
		return StaticRoutine()
	}

	routine, err := parseRoutine(raw)
	if err != nil {
		g.logger.Warn("routine response unparseable, using static template",
			zap.String("agent", p.ID),
			zap.Error(err))
		return StaticRoutine()
	}
	return routine
}

func routinePrompt(p *Profile) string {
	return fmt.Sprintf(
		"Design a daily routine for %s, a resident of the city with interests in %s. "+
			"Respond with a JSON array of entries, each with fields "+
			"time_slot (hour 0-23), activity, location, topics (string array) "+
			"and social_probability (0-1).",
		p.Name, strings.Join(p.Interests, ", "))
}

// parseRoutine extracts a routine from generator output. It tolerates
// surrounding prose by locating the outermost JSON array.
func parseRoutine(raw string) ([]RoutineEntry, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var routine []RoutineEntry
	if err := json.Unmarshal([]byte(raw[start:end+1]), &routine); err != nil {
		return nil, fmt.Errorf("parse routine: %w", err)
	}
	if len(routine) == 0 {
		return nil, fmt.Errorf("empty routine")
	}
	for i := range routine {
		if routine[i].TimeSlot < 0 || routine[i].TimeSlot > 23 {
			return nil, fmt.Errorf("time slot %d out of range", routine[i].TimeSlot)
		}
		if routine[i].SocialProbability < 0 {
			routine[i].SocialProbability = 0
		}
		if routine[i].SocialProbability > 1 {
			routine[i].SocialProbability = 1
		}
	}
	return routine, nil
}

// StaticRoutine is the deterministic fallback routine template.
func StaticRoutine() []RoutineEntry {
	return []RoutineEntry{
		{TimeSlot: 7, Activity: "morning_exercise", Location: "Park",
			Topics: []string{"health", "weather"}, SocialProbability: 0.3},
		{TimeSlot: 9, Activity: "work", Location: "Office",
			Topics: []string{"projects", "technology"}, SocialProbability: 0.2},
		{TimeSlot: 12, Activity: "lunch_break", Location: "Restaurant",
			Topics: []string{"food", "plans"}, SocialProbability: 0.8},
		{TimeSlot: 14, Activity: "work", Location: "Office",
			Topics: []string{"projects", "ideas"}, SocialProbability: 0.2},
		{TimeSlot: 17, Activity: "shopping", Location: "Market",
			Topics: []string{"goods", "prices"}, SocialProbability: 0.5},
		{TimeSlot: 19, Activity: "social_time", Location: "Cafe",
			Topics: []string{"culture", "events", "stories"}, SocialProbability: 0.9},
		{TimeSlot: 22, Activity: "rest", Location: "Home",
			Topics: []string{"reflection"}, SocialProbability: 0.1},
	}
}
