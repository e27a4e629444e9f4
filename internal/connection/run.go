package connection

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/midl-pulse/internal/model"
)

// EventHandler receives events forwarded by Run.
type EventHandler func(model.TxEvent)

// Run follows the tape at cfg.URL until ctx is cancelled, reconnecting with
// exponential backoff after every failure. The wait resets once a connection
// succeeds. Run returns ctx.Err().
func Run(ctx context.Context, cfg ClientConfig, handle EventHandler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultClientConfig()
	if cfg.ReconnectBaseWait <= 0 {
		cfg.ReconnectBaseWait = def.ReconnectBaseWait
	}
	if cfg.ReconnectMaxWait < cfg.ReconnectBaseWait {
		cfg.ReconnectMaxWait = cfg.ReconnectBaseWait
	}

	wait := cfg.ReconnectBaseWait
	for attempt := 1; ; attempt++ {
		c := NewClient(cfg, logger)
		err := c.Connect(ctx)
		if err == nil {
			logger.Info("tape connected", "url", cfg.URL, "attempt", attempt)
			wait = cfg.ReconnectBaseWait
			err = pump(ctx, c, handle)
		}
		c.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Warn("tape connection lost, reconnecting",
			"error", err,
			"wait", wait,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		// Exponential backoff
		wait *= 2
		if wait > cfg.ReconnectMaxWait {
			wait = cfg.ReconnectMaxWait
		}
	}
}

// pump forwards events until the connection fails or ctx is done.
func pump(ctx context.Context, c Client, handle EventHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-c.Errors():
			// Drain what already arrived before reporting the failure.
			for {
				select {
				case ev := <-c.Events():
					handle(ev)
				default:
					return err
				}
			}
		case ev := <-c.Events():
			handle(ev)
		}
	}
}
