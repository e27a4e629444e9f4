package prng

const (
	// Modulus is the Park–Miller prime 2^31 - 1.
	Modulus = 2147483647

	// Multiplier is the minimal-standard multiplier.
	Multiplier = 16807
)

// Stream is a seeded Park–Miller generator. Draws depend on every prior draw,
// so a Stream belongs to exactly one derivation and is not safe for
// concurrent use.
type Stream struct {
	s int64
}

// NewStream returns a stream positioned before its first draw.
//
// The seed is reduced modulo Modulus. A zero residue would pin the recurrence
// at zero forever, so it is replaced with 1. Every other seed yields the same
// sequence as the unreduced recurrence.
func NewStream(seed int64) *Stream {
	s := seed % Modulus
	if s < 0 {
		s += Modulus
	}
	if s == 0 {
		s = 1
	}
	return &Stream{s: s}
}

// Next advances the stream and returns a value in [0, 1).
func (r *Stream) Next() float64 {
	r.s = (r.s * Multiplier) % Modulus
	return float64(r.s-1) / float64(Modulus-1)
}

// State returns the current internal value.
func (r *Stream) State() int64 {
	return r.s
}
