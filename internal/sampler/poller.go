package sampler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/midl-pulse/internal/clock"
	"github.com/rickgao/midl-pulse/internal/metrics"
	"github.com/rickgao/midl-pulse/internal/model"
)

// SnapshotHandler receives each snapshot the poller takes.
type SnapshotHandler interface {
	HandleSnapshot(snapshot model.StatsSnapshot) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(model.StatsSnapshot) error

func (f SnapshotHandlerFunc) HandleSnapshot(s model.StatsSnapshot) error {
	return f(s)
}

// PollerConfig holds poller configuration.
type PollerConfig struct {
	Interval time.Duration // Poll interval (default: 5s)
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{Interval: 5 * time.Second}
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollerClock sets the clock that drives the poll ticker.
func WithPollerClock(c clock.Clock) PollerOption {
	return func(p *Poller) { p.clock = c }
}

// WithPollerMetrics enables Prometheus instrumentation.
func WithPollerMetrics(m *metrics.Metrics) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

// Poller periodically snapshots a Sampler and caches the latest result.
type Poller struct {
	cfg     PollerConfig
	sampler *Sampler
	handler SnapshotHandler
	logger  *slog.Logger
	clock   clock.Clock
	metrics *metrics.Metrics

	mu     sync.RWMutex
	latest model.StatsSnapshot
	polled bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a new Poller. handler may be nil.
func NewPoller(cfg PollerConfig, s *Sampler, handler SnapshotHandler, logger *slog.Logger, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollerConfig().Interval
	}
	p := &Poller{
		cfg:     cfg,
		sampler: s,
		handler: handler,
		logger:  logger,
		clock:   clock.Real(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins the polling loop. The first snapshot is taken before Start
// returns.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	ticker := p.clock.NewTicker(p.cfg.Interval)
	p.poll()

	p.wg.Add(1)
	go p.run(ticker)

	p.logger.Info("stats poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("stats poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest returns the most recent snapshot. ok is false until the first poll.
func (p *Poller) Latest() (snapshot model.StatsSnapshot, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.polled
}

// run is the main polling loop.
func (p *Poller) run(ticker clock.Ticker) {
	defer p.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C():
			p.poll()
		}
	}
}

// poll takes one snapshot, caches it, and hands it to the handler.
func (p *Poller) poll() {
	snapshot := p.sampler.Snapshot()

	p.mu.Lock()
	p.latest = snapshot
	p.polled = true
	p.mu.Unlock()

	p.metrics.RecordPoll(snapshot.Block.Height)

	if p.handler != nil {
		if err := p.handler.HandleSnapshot(snapshot); err != nil {
			p.logger.Warn("snapshot handler failed",
				"height", snapshot.Block.Height,
				"error", err,
			)
		}
	}

	p.logger.Debug("stats snapshot taken",
		"height", snapshot.Block.Height,
		"tps", snapshot.Network.TPS.String(),
	)
}
