// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Tape ticks, deliveries, and subscriber panics
//   - Live tape sessions, frames sent, and events dropped
//   - Sampler polls
//   - HTTP request counts and latencies
//
// All record methods are safe on a nil *Metrics so components can run
// without instrumentation.
package metrics
