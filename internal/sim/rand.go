package sim

import (
	"math/rand"
	"sync"
)

// Rand is the randomness source for the simulation. Event selection,
// group sizing and cascade timing all draw from it so tests can swap
// in a seeded or scripted source.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// lockedRand wraps math/rand with a mutex since scheduler tasks draw
// from multiple goroutines.
type lockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewRand returns a Rand seeded from seed. Use 0 for a time-based seed.
func NewRand(seed int64) Rand {
	if seed == 0 {
		return &lockedRand{src: rand.New(rand.NewSource(rand.Int63()))}
	}
	return &lockedRand{src: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}
