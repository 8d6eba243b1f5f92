// Package rng provides the seeded random stream a simulation draws from.
// One Source belongs to one simulation; replaying a seed replays the run.
package rng

import "math/rand/v2"

// pcgStream is the fixed PCG increment paired with the seed.
const pcgStream = 0xda3e39cb94b95bdb

// Source is a resettable PCG stream.
type Source struct {
	seed uint64
	r    *rand.Rand
}

// New returns a source seeded with seed.
func New(seed uint64) *Source {
	s := &Source{seed: seed}
	s.Reset()
	return s
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Reset rewinds the stream to its initial state.
func (s *Source) Reset() {
	s.r = rand.New(rand.NewPCG(s.seed, pcgStream))
}

// Reseed replaces the seed and rewinds the stream.
func (s *Source) Reseed(seed uint64) {
	s.seed = seed
	s.Reset()
}

// Float returns a uniform sample in [0, 1).
func (s *Source) Float() float64 {
	return s.r.Float64()
}

// Choose returns a uniform index in [0, n). Panics if n <= 0.
func (s *Source) Choose(n int) int {
	return s.r.IntN(n)
}

// Pick returns a uniformly chosen element of xs.
func Pick[T any](s *Source, xs []T) T {
	return xs[s.Choose(len(xs))]
}
