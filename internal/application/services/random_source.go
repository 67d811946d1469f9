package services

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource yields uniform integers in [0, n).
type RandomSource interface {
	Intn(n int) int
}

// lockedRand makes a *rand.Rand safe for concurrent analyses.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// NewSeededRandom returns a deterministic source for the given seed.
func NewSeededRandom(seed int64) RandomSource {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRandom returns a source seeded from the wall clock.
func NewTimeSeededRandom() RandomSource {
	return NewSeededRandom(time.Now().UnixNano())
}

// uniformInclusive draws from [lo, hi].
func uniformInclusive(rng RandomSource, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}
