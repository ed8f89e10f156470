package city

import "sync"

// Context is a snapshot of the city's cultural mood, taken when a
// conversation is opened or an event is selected.
type Context struct {
	Mood         float64  `json:"mood"` // 0-1
	Traditions   []string `json:"traditions"`
	ActiveEvents []string `json:"active_events"` // titles of ongoing cultural events
	Season       string   `json:"season"`
	Weather      string   `json:"weather"`
}

// Culture tracks the city-wide cultural state.
type Culture struct {
	mu  sync.RWMutex
	ctx Context
}

// NewCulture creates the cultural state with a neutral mood.
func NewCulture() *Culture {
	return &Culture{ctx: Context{Mood: 0.5, Weather: "clear", Season: "summer"}}
}

// Snapshot returns a copy of the current cultural context.
func (c *Culture) Snapshot() Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := c.ctx
	snap.Traditions = append([]string(nil), c.ctx.Traditions...)
	snap.ActiveEvents = append([]string(nil), c.ctx.ActiveEvents...)
	return snap
}

// SetMood updates the city mood, clamped to [0,1].
func (c *Culture) SetMood(mood float64) {
	if mood < 0 {
		mood = 0
	}
	if mood > 1 {
		mood = 1
	}
	c.mu.Lock()
	c.ctx.Mood = mood
	c.mu.Unlock()
}

// SetTraditions replaces the active tradition list.
func (c *Culture) SetTraditions(traditions []string) {
	c.mu.Lock()
	c.ctx.Traditions = append([]string(nil), traditions...)
	c.mu.Unlock()
}

// SetActiveEvents replaces the list of ongoing cultural event titles.
func (c *Culture) SetActiveEvents(titles []string) {
	c.mu.Lock()
	c.ctx.ActiveEvents = append([]string(nil), titles...)
	c.mu.Unlock()
}

// SetWeather updates the current weather label.
func (c *Culture) SetWeather(weather string) {
	c.mu.Lock()
	c.ctx.Weather = weather
	c.mu.Unlock()
}
