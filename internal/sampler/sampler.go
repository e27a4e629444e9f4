package sampler

import (
	"github.com/shopspring/decimal"

	"github.com/rickgao/midl-pulse/internal/clock"
	"github.com/rickgao/midl-pulse/internal/entropy"
	"github.com/rickgao/midl-pulse/internal/model"
)

const (
	blockHashPrefix = "0000000000000000"
	blockHashRandom = 48

	tpsMin, tpsSpan     = 20.0, 50.0
	gasMin, gasSpan     = 5, 20
	runesMin, runesSpan = 1240, 50
)

// Config holds sampler base constants.
type Config struct {
	BaseHeight   uint64 // Lowest block height reported
	HeightJitter int    // Heights fall in [BaseHeight, BaseHeight+HeightJitter)
}

// DefaultConfig returns the default sampler configuration.
func DefaultConfig() Config {
	return Config{
		BaseHeight:   832129,
		HeightJitter: 10,
	}
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithClock sets the clock used to stamp block samples.
func WithClock(c clock.Clock) Option {
	return func(s *Sampler) { s.clock = c }
}

// WithSource sets the randomness used for samples.
func WithSource(src entropy.Source) Option {
	return func(s *Sampler) { s.src = src }
}

// Sampler draws bounded-random network samples.
type Sampler struct {
	cfg   Config
	clock clock.Clock
	src   entropy.Source
}

// New creates a Sampler.
func New(cfg Config, opts ...Option) *Sampler {
	if cfg.HeightJitter < 1 {
		cfg.HeightJitter = 1
	}
	s := &Sampler{
		cfg:   cfg,
		clock: clock.Real(),
		src:   entropy.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LatestBlock returns a fresh block sample.
func (s *Sampler) LatestBlock() model.BlockSample {
	return model.BlockSample{
		Height: s.cfg.BaseHeight + uint64(s.src.IntN(s.cfg.HeightJitter)),
		Hash:   blockHashPrefix + entropy.Hex(s.src, blockHashRandom),
		Time:   s.clock.Now(),
	}
}

// NetworkStats returns fresh network load figures.
func (s *Sampler) NetworkStats() model.NetworkStats {
	return model.NetworkStats{
		TPS:         decimal.NewFromFloat(s.src.Float64()*tpsSpan + tpsMin).Round(model.TPSPlaces),
		Gas:         gasMin + s.src.IntN(gasSpan),
		RunesActive: runesMin + s.src.IntN(runesSpan),
	}
}

// Snapshot samples both the block and the network at once.
func (s *Sampler) Snapshot() model.StatsSnapshot {
	return model.StatsSnapshot{
		Block:     s.LatestBlock(),
		Network:   s.NetworkStats(),
		SampledAt: s.clock.Now(),
	}
}
