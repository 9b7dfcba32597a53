package sampler

import (
	"math/rand/v2"
)

// MaxAutoSeed bounds the seeds generated when none is given
const MaxAutoSeed = 100000

// Source is a stream of draws in [0,1)
type Source interface {
	Next() float64
}

// Generator is a seeded, reproducible Source
// Same seed and same sequence of calls give bit-identical draws.
// A Generator is not safe for concurrent use.
type Generator struct {
	seed int64
	rnd  *rand.Rand
}

// NewGenerator creates a generator from the seed.
// If seed is nil, a seed in [0, MaxAutoSeed) is drawn: it is returned by Seed() so that the run can be reproduced.
func NewGenerator(seed *int64) *Generator {
	var s int64
	if seed != nil {
		s = *seed
	} else {
		s = rand.Int64N(MaxAutoSeed)
	}
	return &Generator{
		seed: s,
		rnd:  rand.New(rand.NewPCG(uint64(s), 0)),
	}
}

// Seed returns the seed of the generator
func (g *Generator) Seed() int64 {
	return g.seed
}

// Next implements Source
func (g *Generator) Next() float64 {
	return g.rnd.Float64()
}
