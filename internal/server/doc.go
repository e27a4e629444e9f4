// Package server exposes the engine over HTTP.
//
// JSON endpoints under /api serve the explorer generators and the network
// sampler. /ws/tape streams the live tape to WebSocket clients: each
// session owns a bounded buffer fed by a broadcaster subscription and a
// writer loop that flushes batched frames.
package server
