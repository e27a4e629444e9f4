package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default values for optional configuration fields.
const (
	DefaultAddr              = ":8080"
	DefaultReadTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultBTCPriceUSD       = 92430
	DefaultTickInterval      = 800 * time.Millisecond
	DefaultRecentSize        = 50
	DefaultSessionBuffer     = 256
	DefaultBatchSize         = 16
	DefaultFlushInterval     = 100 * time.Millisecond
	DefaultBaseHeight        = 832129
	DefaultHeightJitter      = 10
	DefaultPollInterval      = 5 * time.Second
	DefaultRequestsPerSecond = 20
	DefaultBurst             = 40
	DefaultMetricsPath       = "/metrics"
	DefaultMetricsNamespace  = "midl_pulse"
	DefaultLogLevel          = "info"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Engine defaults
	if c.Engine.BTCPriceUSD.IsZero() {
		c.Engine.BTCPriceUSD = decimal.NewFromInt(DefaultBTCPriceUSD)
	}
	if c.Engine.TickInterval == 0 {
		c.Engine.TickInterval = DefaultTickInterval
	}

	// Tape defaults
	if c.Tape.RecentSize == 0 {
		c.Tape.RecentSize = DefaultRecentSize
	}
	if c.Tape.SessionBuffer == 0 {
		c.Tape.SessionBuffer = DefaultSessionBuffer
	}
	if c.Tape.BatchSize == 0 {
		c.Tape.BatchSize = DefaultBatchSize
	}
	if c.Tape.FlushInterval == 0 {
		c.Tape.FlushInterval = DefaultFlushInterval
	}

	// Sampler defaults
	if c.Sampler.BaseHeight == 0 {
		c.Sampler.BaseHeight = DefaultBaseHeight
	}
	if c.Sampler.HeightJitter == 0 {
		c.Sampler.HeightJitter = DefaultHeightJitter
	}
	if c.Sampler.PollInterval == 0 {
		c.Sampler.PollInterval = DefaultPollInterval
	}

	// Rate limit defaults
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = DefaultBurst
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
