package event

import (
	"time"

	"github.com/bezata/aicity-backend-sub002/internal/city"
)

// Priority buckets an event's urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// SpreadPattern governs the delay policy for cascade emission.
type SpreadPattern string

const (
	SpreadLinear      SpreadPattern = "linear"
	SpreadExponential SpreadPattern = "exponential"
	SpreadClustered   SpreadPattern = "clustered"
)

// TimeOfDay buckets the simulated wall-clock hour.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimeOfDayFor buckets an hour into a TimeOfDay.
func TimeOfDayFor(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 22:
		return Evening
	default:
		return Night
	}
}

// Impact is one metric effect attached to an event: a delta applied to
// a named metric for a duration.
type Impact struct {
	Category string        `json:"category"`
	Metric   string        `json:"metric"`
	Delta    float64       `json:"delta"`
	Duration time.Duration `json:"duration"` // always >= 0
}

// CascadeSpec describes how an event may spawn secondary events.
type CascadeSpec struct {
	Probability   float64       `json:"probability"` // 0-1
	RelatedEvents []string      `json:"related_events"`
	Spread        SpreadPattern `json:"spread"`
}

// Template is a static, parameterized description of a possible
// city-wide disruption. Catalog data, read-only at runtime.
type Template struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Severity         float64             `json:"severity"` // 0-1
	Priority         Priority            `json:"priority"`
	Impacts          []Impact            `json:"impacts"`
	RequiredAgents   []string            `json:"required_agents,omitempty"`
	DistrictTypes    []city.DistrictType `json:"district_types,omitempty"`
	Cascade          *CascadeSpec        `json:"cascade,omitempty"`
	PreferredTime    TimeOfDay           `json:"preferred_time,omitempty"`
	WeatherSensitive bool                `json:"weather_sensitive,omitempty"`
	Season           string              `json:"season,omitempty"`
}

// Instance is a template bound to a concrete district. It stays in the
// active index until explicitly resolved.
type Instance struct {
	ID         string    `json:"id"`
	Template   Template  `json:"template"`
	DistrictID string    `json:"district_id"`
	ParentID   string    `json:"parent_id,omitempty"` // set for cascade-spawned events
	Depth      int       `json:"depth"`               // 0 for primary events
	CreatedAt  time.Time `json:"created_at"`
}

// DefaultCatalog is the built-in event template catalog.
func DefaultCatalog() []Template {
	return []Template{
		{
			ID:          "public-health-alert",
			Title:       "Public Health Alert",
			Description: "A contamination warning strains clinics and drives residents indoors",
			Severity:    0.8,
			Priority:    PriorityHigh,
			Impacts: []Impact{
				{Category: "social", Metric: "healthcareAccessScore", Delta: -0.3, Duration: 48 * time.Hour},
				{Category: "sustainability", Metric: "airQualityIndex", Delta: 200, Duration: 24 * time.Hour},
			},
			DistrictTypes: []city.DistrictType{city.DistrictResidential, city.DistrictMixed},
			Cascade: &CascadeSpec{
				Probability:   0.6,
				RelatedEvents: []string{"Clinic Overcrowding", "School Closure"},
				Spread:        SpreadExponential,
			},
			PreferredTime: Morning,
		},
		{
			ID:          "traffic-gridlock",
			Title:       "Traffic Gridlock",
			Description: "A multi-junction failure locks up commuter corridors",
			Severity:    0.5,
			Priority:    PriorityMedium,
			Impacts: []Impact{
				{Category: "infrastructure", Metric: "trafficCongestion", Delta: 0.4, Duration: 6 * time.Hour},
				{Category: "economy", Metric: "businessActivity", Delta: -0.1, Duration: 6 * time.Hour},
			},
			DistrictTypes: []city.DistrictType{city.DistrictCommercial, city.DistrictIndustrial},
			Cascade: &CascadeSpec{
				Probability:   0.3,
				RelatedEvents: []string{"Transit Overload"},
				Spread:        SpreadLinear,
			},
			PreferredTime: Morning,
		},
		{
			ID:          "street-festival",
			Title:       "Street Festival",
			Description: "A spontaneous cultural festival fills the plazas with music and food stalls",
			Severity:    0.3,
			Priority:    PriorityLow,
			Impacts: []Impact{
				{Category: "social", Metric: "communityWellbeing", Delta: 0.2, Duration: 12 * time.Hour},
				{Category: "economy", Metric: "businessActivity", Delta: 0.15, Duration: 12 * time.Hour},
			},
			DistrictTypes: []city.DistrictType{city.DistrictCultural, city.DistrictMixed},
			PreferredTime: Evening,
		},
		{
			ID:          "power-outage",
			Title:       "Power Outage",
			Description: "A substation fault blacks out several blocks",
			Severity:    0.7,
			Priority:    PriorityCritical,
			Impacts: []Impact{
				{Category: "infrastructure", Metric: "maintenanceBacklog", Delta: 0.3, Duration: 24 * time.Hour},
				{Category: "safety", Metric: "emergencyResponse", Delta: -0.2, Duration: 12 * time.Hour},
			},
			Cascade: &CascadeSpec{
				Probability:   0.5,
				RelatedEvents: []string{"Business Disruption", "Traffic Signal Failure"},
				Spread:        SpreadClustered,
			},
			PreferredTime: Night,
		},
		{
			ID:          "market-surge",
			Title:       "Market Surge",
			Description: "A wave of new businesses opens across the commercial strips",
			Severity:    0.4,
			Priority:    PriorityLow,
			Impacts: []Impact{
				{Category: "economy", Metric: "employmentRate", Delta: 0.05, Duration: 72 * time.Hour},
				{Category: "economy", Metric: "marketStability", Delta: 0.1, Duration: 72 * time.Hour},
			},
			DistrictTypes: []city.DistrictType{city.DistrictCommercial},
			PreferredTime: Afternoon,
		},
		{
			ID:          "storm-warning",
			Title:       "Storm Warning",
			Description: "A severe storm front approaches the city",
			Severity:    0.6,
			Priority:    PriorityHigh,
			Impacts: []Impact{
				{Category: "safety", Metric: "emergencyResponse", Delta: -0.15, Duration: 12 * time.Hour},
				{Category: "infrastructure", Metric: "publicTransitLoad", Delta: 0.25, Duration: 12 * time.Hour},
			},
			Cascade: &CascadeSpec{
				Probability:   0.4,
				RelatedEvents: []string{"Flooded Underpass"},
				Spread:        SpreadLinear,
			},
			WeatherSensitive: true,
			PreferredTime:    Evening,
		},
	}
}
