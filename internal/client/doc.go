// Package client is a typed HTTP client for the pulse API.
//
// Requests that fail with a 5xx or 429 status are retried with exponential
// backoff and jitter.
package client
