// Package sampler produces the dashboard-wide network samples: the latest
// block and the network load figures.
//
// Sampler is stateless apart from its base constants; every call draws a
// fresh sample. Poller refreshes a cached snapshot on a fixed interval for
// consumers that only need the most recent value.
package sampler
