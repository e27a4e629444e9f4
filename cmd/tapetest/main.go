// tapetest follows a pulse server's live tape and prints events to the console.
// Usage: go run ./cmd/tapetest --url ws://localhost:8080/ws/tape
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/midl-pulse/internal/connection"
	"github.com/rickgao/midl-pulse/internal/feed"
	"github.com/rickgao/midl-pulse/internal/model"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws/tape", "tape WebSocket URL")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := connection.DefaultClientConfig()
	cfg.URL = *url

	buf := feed.NewBuffer[model.TxEvent](256, 10000)

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		printEvents(os.Stdout, buf, *verbose)
	}()

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := buf.Stats()
				logger.Info("stats",
					"received", stats.TotalReceived,
					"printed", stats.TotalSent,
					"queued", stats.Count,
					"dropped", stats.Dropped,
				)
			}
		}
	}()

	logger.Info("following tape - press Ctrl+C to stop", "url", cfg.URL)

	connection.Run(ctx, cfg, func(ev model.TxEvent) {
		buf.Send(ev)
	}, logger)

	buf.Close()
	<-printed
	logger.Info("shutdown complete")
}

// printEvents writes each queued event to w until buf is closed and drained.
func printEvents(w io.Writer, buf *feed.Buffer[model.TxEvent], verbose bool) {
	for {
		ev, ok := buf.Receive()
		if !ok {
			return
		}

		if verbose {
			data, _ := json.MarshalIndent(ev, "", "  ")
			fmt.Fprintf(w, "[TAPE] %s\n", data)
		} else {
			fmt.Fprintf(w, "[TAPE] #%d %s %-10s %s BTC %s -> %s\n",
				ev.Seq, ev.Hash, ev.Type, ev.Value.StringFixed(model.TapeValuePlaces), ev.From, ev.To)
		}
	}
}
