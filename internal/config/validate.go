package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinTickInterval is the shortest tape tick interval accepted.
const MinTickInterval = 10 * time.Millisecond

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if !c.Engine.BTCPriceUSD.IsPositive() {
		return fmt.Errorf("engine.btc_price_usd must be > 0, got %s", c.Engine.BTCPriceUSD)
	}
	if c.Engine.TickInterval < MinTickInterval {
		return fmt.Errorf("engine.tick_interval must be >= %s, got %s", MinTickInterval, c.Engine.TickInterval)
	}

	if c.Tape.RecentSize < 1 {
		return errors.New("tape.recent_size must be >= 1")
	}
	if c.Tape.SessionBuffer < 1 {
		return errors.New("tape.session_buffer must be >= 1")
	}
	if c.Tape.BatchSize < 1 {
		return errors.New("tape.batch_size must be >= 1")
	}
	if c.Tape.FlushInterval <= 0 {
		return errors.New("tape.flush_interval must be > 0")
	}

	if c.Sampler.HeightJitter < 1 {
		return errors.New("sampler.height_jitter must be >= 1")
	}
	if c.Sampler.PollInterval <= 0 {
		return errors.New("sampler.poll_interval must be > 0")
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be > 0, got %g", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.Burst < 1 {
		return errors.New("rate_limit.burst must be >= 1")
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}
