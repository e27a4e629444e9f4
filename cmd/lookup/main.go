// lookup queries a pulse server for one address and prints the results.
// Usage: go run ./cmd/lookup --addr bc1p... [--timeframe 7d] [--server http://localhost:8080]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rickgao/midl-pulse/internal/client"
	"github.com/rickgao/midl-pulse/internal/model"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "pulse server base URL")
	addr := flag.String("addr", "", "address to look up")
	timeframe := flag.String("timeframe", string(model.Timeframe30d), "history timeframe (24h, 7d, 30d, All)")
	stats := flag.Bool("stats", false, "also print the latest network snapshot")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "usage: lookup --addr <address>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := client.New(*server, client.WithLogger(logger))

	profile, err := c.Profile(ctx, *addr)
	if err != nil {
		logger.Error("profile lookup failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Address:   %s\n", profile.Address)
	fmt.Printf("Badge:     %s\n", profile.Badge)
	fmt.Printf("Equity:    %s BTC ($%s)\n", profile.Equity.StringFixed(4), profile.EquityUSD.StringFixed(2))
	fmt.Printf("Age:       %d days\n", profile.DaysSinceFirst)
	fmt.Printf("Txs:       %d\n", profile.TxCount)

	history, err := c.History(ctx, *addr, model.Timeframe(*timeframe))
	if err != nil {
		logger.Error("history lookup failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("\nHistory (%s, %d points)\n", *timeframe, len(history))
	for _, p := range history {
		fmt.Printf("  %-12s %10.4f\n", p.Label, p.Value)
	}

	holdings, err := c.Holdings(ctx, *addr)
	if err != nil {
		logger.Error("holdings lookup failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("\nHoldings (%d tokens)\n", len(holdings))
	for _, h := range holdings {
		fmt.Printf("  %-6s %-20s %16s @ %-12s $%s\n", h.Symbol, h.Name, h.Balance, h.PriceFormatted, h.Value.StringFixed(2))
	}

	if *stats {
		snap, err := c.Snapshot(ctx)
		if err != nil {
			logger.Error("snapshot lookup failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("\nBlock %d (%s)\n", snap.Block.Height, snap.Block.Hash)
		fmt.Printf("TPS %s  gas %d sat/vB  runes active %d\n", snap.Network.TPS.StringFixed(1), snap.Network.Gas, snap.Network.RunesActive)
	}
}
