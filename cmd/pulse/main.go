// pulse serves the simulated MIDL explorer API and the live transaction tape.
// Usage: go run ./cmd/pulse --config configs/pulse.example.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/midl-pulse/internal/config"
	"github.com/rickgao/midl-pulse/internal/engine"
	"github.com/rickgao/midl-pulse/internal/feed"
	"github.com/rickgao/midl-pulse/internal/metrics"
	"github.com/rickgao/midl-pulse/internal/model"
	"github.com/rickgao/midl-pulse/internal/sampler"
	"github.com/rickgao/midl-pulse/internal/server"
	"github.com/rickgao/midl-pulse/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting pulse",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"addr", cfg.Server.Addr,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("pulse exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("pulse stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.On() {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	eng := engine.New(engine.FromConfig(cfg),
		engine.WithLogger(logger),
		engine.WithMetrics(m),
	)

	recent, err := feed.NewRecent(eng.Tape(), cfg.Tape.RecentSize)
	if err != nil {
		return err
	}

	poller := sampler.NewPoller(
		sampler.PollerConfig{Interval: cfg.Sampler.PollInterval},
		eng.Sampler(),
		sampler.SnapshotHandlerFunc(func(s model.StatsSnapshot) error {
			logger.Debug("stats sampled", "height", s.Block.Height, "tps", s.Network.TPS.String())
			return nil
		}),
		logger,
		sampler.WithPollerMetrics(m),
	)
	if err := poller.Start(ctx); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:              cfg.Server.Addr,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		SessionBuffer:     cfg.Tape.SessionBuffer,
		BatchSize:         cfg.Tape.BatchSize,
		FlushInterval:     cfg.Tape.FlushInterval,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		MetricsPath:       cfg.Metrics.Path,
	}, eng, logger,
		server.WithMetrics(m),
		server.WithSnapshots(poller),
		server.WithRecent(recent),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("server stop failed", "error", err)
		}
		if err := poller.Stop(shutdownCtx); err != nil {
			logger.Warn("poller stop failed", "error", err)
		}
		recent.Close()
		return eng.Close(shutdownCtx)
	})

	return g.Wait()
}
