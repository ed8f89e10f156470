package conversation

// activityLocations is the fixed per-activity location pool a new
// conversation's location is drawn from.
var activityLocations = map[string][]string{
	"morning_exercise": {"Park", "Riverside Trail", "Gym"},
	"work":             {"Office", "Coworking Space"},
	"lunch_break":      {"Restaurant", "Food Court", "Park"},
	"shopping":         {"Market", "Mall", "Boutique Street"},
	"social_time":      {"Cafe", "Community Center", "Plaza"},
	"rest":             {"Home", "Quiet Garden"},
	"idle":             {"Plaza", "Street Corner", "Cafe"},
}

// activityTopics is the per-activity topic pool, merged with the
// cultural context's traditions when deriving a conversation topic.
var activityTopics = map[string][]string{
	"morning_exercise": {"health", "weather", "routines"},
	"work":             {"projects", "technology", "deadlines"},
	"lunch_break":      {"food", "plans", "neighborhood news"},
	"shopping":         {"goods", "prices", "new arrivals"},
	"social_time":      {"culture", "events", "stories"},
	"rest":             {"reflection", "books"},
	"idle":             {"city life", "weather", "news"},
}

// locationsFor returns the location pool for an activity, defaulting to
// the idle pool.
func locationsFor(activity string) []string {
	if locs, ok := activityLocations[activity]; ok {
		return locs
	}
	return activityLocations["idle"]
}

// topicsFor returns the topic pool for an activity, defaulting to the
// idle pool.
func topicsFor(activity string) []string {
	if topics, ok := activityTopics[activity]; ok {
		return topics
	}
	return activityTopics["idle"]
}
