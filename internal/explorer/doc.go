// Package explorer generates the address explorer view: profile, equity
// history and token holdings.
//
// Every output is a pure function of the address (and timeframe). Each call
// derives its own prng.Stream with a fixed seed offset and draws from it in a
// fixed order:
//
//	Profile   seed(address)                  equity, days, txCount
//	History   seed(address) + len(timeframe) base value, then one draw per point
//	Holdings  seed(address) + 42             one draw per catalog token, in catalog order
//
// Reordering draws or offsets changes every generated value.
//
// History labels are the only clock-dependent output; they are formatted from
// the Generator's clock.
package explorer
