// Package prng derives reproducible pseudo-random sequences from address strings.
//
// Seed folds a string into a non-negative integer using a 31-multiplier hash
// with 32-bit wraparound. Stream is a Park–Miller minimal-standard generator
// (multiplier 16807, modulus 2^31-1) seeded from that integer.
//
// Neither is a security primitive. Both exist so that the same address always
// renders the same dashboard.
package prng
