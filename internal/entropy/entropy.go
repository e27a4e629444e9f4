// Package entropy provides the non-seeded randomness behind the live tape and
// the network sampler.
package entropy

import (
	"math/rand/v2"
	"sync"
)

// Source yields uniform random values. Implementations must be safe for
// concurrent use.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// Default returns the process-wide math/rand/v2 generator.
func Default() Source {
	return globalSource{}
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// Seeded returns a reproducible PCG source, for tests that need a fixed
// random sequence.
func Seeded(seed1, seed2 uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed1, seed2))}
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Base36 returns n random characters from [0-9a-z].
func Base36(src Source, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[src.IntN(len(base36))]
	}
	return string(b)
}

// Hex returns n random lowercase hexadecimal characters.
func Hex(src Source, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[src.IntN(16)]
	}
	return string(b)
}
