// Package feed produces the live transaction tape.
//
// A Broadcaster owns one shared ticker. Every tick it generates a single
// synthetic transaction event and hands the same value to each current
// subscriber in subscription order. The ticker starts when the first
// subscriber arrives and stops when the last one leaves.
//
// Buffer and Recent sit on top of the broadcaster for consumers that need
// to decouple from the tick goroutine or keep a short history.
package feed
