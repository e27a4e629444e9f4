package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/midl-pulse/internal/engine"
	"github.com/rickgao/midl-pulse/internal/feed"
	"github.com/rickgao/midl-pulse/internal/metrics"
	"github.com/rickgao/midl-pulse/internal/model"
)

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	SessionBuffer int           // Max queued events per tape session
	BatchSize     int           // Max events per tape frame
	FlushInterval time.Duration // Max delay before queued events are flushed

	RequestsPerSecond float64 // Per-client /api rate; <= 0 disables limiting
	Burst             int

	MetricsPath string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		SessionBuffer:     256,
		BatchSize:         16,
		FlushInterval:     100 * time.Millisecond,
		RequestsPerSecond: 20,
		Burst:             40,
		MetricsPath:       "/metrics",
	}
}

// SnapshotSource provides the most recent cached stats snapshot.
type SnapshotSource interface {
	Latest() (model.StatsSnapshot, bool)
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics enables request instrumentation and mounts the metrics handler.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithSnapshots serves /api/stats/snapshot from src.
func WithSnapshots(src SnapshotSource) Option {
	return func(s *Server) { s.snapshots = src }
}

// WithRecent serves /api/tape/recent from r.
func WithRecent(r *feed.Recent) Option {
	return func(s *Server) { s.recent = r }
}

// Server is the HTTP front end of the engine.
type Server struct {
	cfg       Config
	engine    *engine.Engine
	logger    *slog.Logger
	metrics   *metrics.Metrics
	snapshots SnapshotSource
	recent    *feed.Recent
	limiter   *hostLimiter

	handler  http.Handler
	mu       sync.Mutex
	http     *http.Server
	sessions atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Server for eng.
func New(cfg Config, eng *engine.Engine, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.SessionBuffer < 1 {
		cfg.SessionBuffer = def.SessionBuffer
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = def.MetricsPath
	}

	s := &Server{
		cfg:    cfg,
		engine: eng,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = newHostLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	// Sessions outlive individual requests; Stop cancels them.
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Sessions returns the number of live tape sessions.
func (s *Server) Sessions() int64 {
	return s.sessions.Load()
}

// Serve accepts connections on l until Stop is called. It returns nil after a
// clean shutdown.
func (s *Server) Serve(l net.Listener) error {
	hs := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return s.ctx },
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		l.Close()
		return nil
	}
	s.http = hs
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", l.Addr().String())

	if err := hs.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and serves until Stop.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Stop closes tape sessions and gracefully shuts down the listener.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")

	s.mu.Lock()
	s.cancel()
	hs := s.http
	s.mu.Unlock()

	if hs == nil {
		return nil
	}
	if err := hs.Shutdown(ctx); err != nil {
		s.logger.Warn("http server shutdown timed out", "error", err)
		return err
	}

	s.logger.Info("http server stopped")
	return nil
}
