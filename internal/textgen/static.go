package textgen

import (
	"context"
	"sync"
)

// StaticGenerator returns canned text, cycling through its lines. It
// serves as the deterministic fallback when no live generator is
// configured and as a test double. Safe for concurrent use.
type StaticGenerator struct {
	lines []string
	mu    sync.Mutex
	next  int
}

// NewStaticGenerator creates a generator that cycles through lines.
// With no lines it always returns an empty string.
func NewStaticGenerator(lines ...string) *StaticGenerator {
	return &StaticGenerator{lines: lines}
}

// Generate implements Generator. It never fails.
func (g *StaticGenerator) Generate(_ context.Context, _ string) (string, error) {
	if len(g.lines) == 0 {
		return "", nil
	}
	g.mu.Lock()
	line := g.lines[g.next%len(g.lines)]
	g.next++
	g.mu.Unlock()
	return line, nil
}
