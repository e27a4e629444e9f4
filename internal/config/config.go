package config

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the root configuration for a pulse server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Tape      TapeConfig      `yaml:"tape"`
	Sampler   SamplerConfig   `yaml:"sampler"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EngineConfig holds generator and broadcaster settings.
type EngineConfig struct {
	BTCPriceUSD  decimal.Decimal `yaml:"btc_price_usd"`
	TickInterval time.Duration   `yaml:"tick_interval"`
}

// TapeConfig holds live tape settings.
type TapeConfig struct {
	RecentSize    int           `yaml:"recent_size"`    // Events kept for /api/tape/recent
	SessionBuffer int           `yaml:"session_buffer"` // Max queued events per WebSocket session
	BatchSize     int           `yaml:"batch_size"`     // Max events per frame
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// SamplerConfig holds network sampler settings.
type SamplerConfig struct {
	BaseHeight   uint64        `yaml:"base_height"`
	HeightJitter int           `yaml:"height_jitter"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// RateLimitConfig holds per-client API rate limits.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled   *bool  `yaml:"enabled"` // nil means enabled
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// On reports whether metrics are enabled.
func (m MetricsConfig) On() bool {
	return m.Enabled == nil || *m.Enabled
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SlogLevel maps Level to a slog.Level. Unknown values map to Info.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
