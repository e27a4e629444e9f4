package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrStaleConnection = errors.New("connection stale (no pong)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// ClientConfig configures a tape client.
type ClientConfig struct {
	URL          string        // WebSocket URL (e.g., ws://localhost:8080/ws/tape)
	PingInterval time.Duration // How often to ping the server
	PingTimeout  time.Duration // Max time without pong before considering connection stale
	WriteTimeout time.Duration // Write deadline for control frames
	BufferSize   int           // Event channel buffer size

	ReconnectBaseWait time.Duration // First wait before reconnecting (Run only)
	ReconnectMaxWait  time.Duration // Backoff cap (Run only)
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval:      30 * time.Second,
		PingTimeout:       90 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        1024,
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  30 * time.Second,
	}
}

// ClientStats contains runtime statistics.
type ClientStats struct {
	Frames       int64 // Tape frames received
	Events       int64 // Events delivered to the channel
	Dropped      int64 // Events the server reported as skipped
	Overflow     int64 // Events discarded because the channel was full
	DecodeErrors int64
}
