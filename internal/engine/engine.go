// Package engine wires the explorer generators, the live tape, and the
// network sampler into one explicitly constructed instance.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/midl-pulse/internal/clock"
	"github.com/rickgao/midl-pulse/internal/config"
	"github.com/rickgao/midl-pulse/internal/entropy"
	"github.com/rickgao/midl-pulse/internal/explorer"
	"github.com/rickgao/midl-pulse/internal/feed"
	"github.com/rickgao/midl-pulse/internal/metrics"
	"github.com/rickgao/midl-pulse/internal/model"
	"github.com/rickgao/midl-pulse/internal/sampler"
)

// Config holds engine settings.
type Config struct {
	BTCPriceUSD  float64
	TickInterval time.Duration
	Sampler      sampler.Config
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		BTCPriceUSD:  explorer.DefaultBTCPriceUSD,
		TickInterval: feed.DefaultInterval,
		Sampler:      sampler.DefaultConfig(),
	}
}

// FromConfig extracts engine settings from the server configuration.
func FromConfig(c *config.Config) Config {
	return Config{
		BTCPriceUSD:  c.Engine.BTCPriceUSD.InexactFloat64(),
		TickInterval: c.Engine.TickInterval,
		Sampler: sampler.Config{
			BaseHeight:   c.Sampler.BaseHeight,
			HeightJitter: c.Sampler.HeightJitter,
		},
	}
}

type options struct {
	clock   clock.Clock
	src     entropy.Source
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*options)

// WithClock sets the clock shared by history labels, the tape, and the sampler.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSource sets the randomness for the tape and the sampler. The explorer
// generators are seeded from addresses and never use it.
func WithSource(src entropy.Source) Option {
	return func(o *options) { o.src = src }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Engine is the synthetic data engine.
type Engine struct {
	gen     *explorer.Generator
	tape    *feed.Broadcaster
	sampler *sampler.Sampler
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates an Engine. The tape stays idle until the first subscriber.
func New(cfg Config, opts ...Option) *Engine {
	o := options{
		clock:  clock.Real(),
		src:    entropy.Default(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.BTCPriceUSD <= 0 {
		cfg.BTCPriceUSD = explorer.DefaultBTCPriceUSD
	}

	return &Engine{
		gen: explorer.NewGenerator(
			explorer.WithClock(o.clock),
			explorer.WithBTCPrice(cfg.BTCPriceUSD),
		),
		tape: feed.NewBroadcaster(feed.Config{Interval: cfg.TickInterval}, o.logger,
			feed.WithClock(o.clock),
			feed.WithSource(o.src),
			feed.WithMetrics(o.metrics),
		),
		sampler: sampler.New(cfg.Sampler,
			sampler.WithClock(o.clock),
			sampler.WithSource(o.src),
		),
		clock:  o.clock,
		logger: o.logger,
	}
}

// Profile returns the deterministic profile for address.
func (e *Engine) Profile(address string) model.AddressProfile {
	return e.gen.Profile(address)
}

// History returns the deterministic equity series for address over tf.
func (e *Engine) History(address string, tf model.Timeframe) []model.EquityPoint {
	return e.gen.History(address, tf)
}

// Holdings returns the deterministic holdings for address, highest value first.
func (e *Engine) Holdings(address string) []model.TokenHolding {
	return e.gen.Holdings(address)
}

// Subscribe registers fn on the live tape.
func (e *Engine) Subscribe(fn feed.Handler) (*feed.Subscription, error) {
	return e.tape.Subscribe(fn)
}

// LatestBlock returns a fresh block sample.
func (e *Engine) LatestBlock() model.BlockSample {
	return e.sampler.LatestBlock()
}

// NetworkStats returns fresh network stats.
func (e *Engine) NetworkStats() model.NetworkStats {
	return e.sampler.NetworkStats()
}

// Tape returns the live broadcaster.
func (e *Engine) Tape() *feed.Broadcaster {
	return e.tape
}

// Sampler returns the network sampler.
func (e *Engine) Sampler() *sampler.Sampler {
	return e.sampler
}

// Clock returns the engine clock.
func (e *Engine) Clock() clock.Clock {
	return e.clock
}

// Close stops the live tape.
func (e *Engine) Close(ctx context.Context) error {
	return e.tape.Close(ctx)
}
