package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/midl-pulse/internal/clock"
	"github.com/rickgao/midl-pulse/internal/entropy"
	"github.com/rickgao/midl-pulse/internal/metrics"
	"github.com/rickgao/midl-pulse/internal/model"
)

// DefaultInterval is the tape tick period.
const DefaultInterval = 800 * time.Millisecond

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("feed: broadcaster closed")

// Handler receives tape events. It runs on the broadcaster's tick goroutine
// and must not block for long.
type Handler func(model.TxEvent)

// Config holds broadcaster settings.
type Config struct {
	Interval time.Duration
}

// DefaultConfig returns the default broadcaster configuration.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval}
}

// Stats contains runtime statistics.
type Stats struct {
	Subscribers int
	Running     bool
	Ticks       int64
	Deliveries  int64
	Panics      int64
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithClock sets the clock that drives the ticker and stamps events.
func WithClock(c clock.Clock) Option {
	return func(b *Broadcaster) { b.clock = c }
}

// WithSource sets the randomness used for event generation.
func WithSource(src entropy.Source) Option {
	return func(b *Broadcaster) { b.src = src }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Broadcaster) { b.metrics = m }
}

// Subscription is a handle returned by Subscribe.
type Subscription struct {
	ID uuid.UUID

	fn      Handler
	b       *Broadcaster
	removed atomic.Bool
}

// Unsubscribe detaches the subscription. It is idempotent, never blocks on
// the tick goroutine, and is safe to call from inside the handler. Once it
// returns the handler is not invoked for any later tick; a delivery that was
// already running when it was called may still finish.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.removed.CompareAndSwap(false, true) {
		return
	}
	if s.b != nil {
		s.b.remove(s)
	}
}

// run is one lifetime of the shared ticker.
type run struct {
	ticker clock.Ticker
	done   chan struct{}
}

// Broadcaster fans a single generated event per tick out to all subscribers.
type Broadcaster struct {
	cfg     Config
	logger  *slog.Logger
	clock   clock.Clock
	src     entropy.Source
	metrics *metrics.Metrics

	mu     sync.Mutex
	subs   []*Subscription
	active *run
	closed bool
	seq    uint64
	wg     sync.WaitGroup

	ticks      atomic.Int64
	deliveries atomic.Int64
	panics     atomic.Int64
}

// NewBroadcaster creates an idle broadcaster. No ticker runs until the first
// Subscribe.
func NewBroadcaster(cfg Config, logger *slog.Logger, opts ...Option) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	b := &Broadcaster{
		cfg:    cfg,
		logger: logger,
		clock:  clock.Real(),
		src:    entropy.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn for every subsequent tick and starts the shared
// ticker if it is not running.
func (b *Broadcaster) Subscribe(fn Handler) (*Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("feed: nil handler")
	}

	sub := &Subscription{ID: uuid.New(), fn: fn, b: b}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	b.subs = append(b.subs, sub)
	b.metrics.SetSubscribers(len(b.subs))

	if b.active == nil {
		b.start()
	}

	b.logger.Debug("tape subscriber added", "id", sub.ID, "subscribers", len(b.subs))
	return sub, nil
}

// Close detaches every subscriber, stops the ticker, and waits for the tick
// goroutine to exit or ctx to expire.
func (b *Broadcaster) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		s.removed.Store(true)
	}
	b.subs = nil
	b.metrics.SetSubscribers(0)
	b.stop()
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("tape broadcaster stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("tape broadcaster stop timed out")
		return ctx.Err()
	}
}

// Stats returns current statistics.
func (b *Broadcaster) Stats() Stats {
	b.mu.Lock()
	n, running := len(b.subs), b.active != nil
	b.mu.Unlock()

	return Stats{
		Subscribers: n,
		Running:     running,
		Ticks:       b.ticks.Load(),
		Deliveries:  b.deliveries.Load(),
		Panics:      b.panics.Load(),
	}
}

// start creates the shared ticker. Must be called with lock held.
func (b *Broadcaster) start() {
	r := &run{
		ticker: b.clock.NewTicker(b.cfg.Interval),
		done:   make(chan struct{}),
	}
	b.active = r

	b.wg.Add(1)
	go b.tickLoop(r)

	b.logger.Info("tape broadcaster started", "interval", b.cfg.Interval)
}

// stop tears down the shared ticker. Must be called with lock held.
func (b *Broadcaster) stop() {
	if b.active == nil {
		return
	}
	b.active.ticker.Stop()
	close(b.active.done)
	b.active = nil

	b.logger.Info("tape broadcaster idle")
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			break
		}
	}
	b.metrics.SetSubscribers(len(b.subs))

	if len(b.subs) == 0 {
		b.stop()
	}

	b.logger.Debug("tape subscriber removed", "id", sub.ID, "subscribers", len(b.subs))
}

func (b *Broadcaster) tickLoop(r *run) {
	defer b.wg.Done()

	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C():
			b.tick(r)
		}
	}
}

func (b *Broadcaster) tick(r *run) {
	b.mu.Lock()
	if b.active != r {
		// The ticker was stopped (and maybe restarted) after this tick fired.
		b.mu.Unlock()
		return
	}
	b.seq++
	ev := NewEvent(b.src, b.seq, b.clock.Now())
	targets := make([]*Subscription, len(b.subs))
	copy(targets, b.subs)
	b.mu.Unlock()

	b.ticks.Add(1)
	b.metrics.RecordTick()

	for _, s := range targets {
		if s.removed.Load() {
			continue
		}
		b.deliver(s, ev)
	}
}

func (b *Broadcaster) deliver(s *Subscription, ev model.TxEvent) {
	defer func() {
		if p := recover(); p != nil {
			b.panics.Add(1)
			b.metrics.RecordSubscriberPanic()
			b.logger.Warn("tape subscriber panicked",
				"id", s.ID,
				"seq", ev.Seq,
				"panic", p,
			)
		}
	}()

	s.fn(ev)
	b.deliveries.Add(1)
	b.metrics.RecordDelivery()
}
