package explorer

import (
	"github.com/rickgao/midl-pulse/internal/clock"
	"github.com/rickgao/midl-pulse/internal/model"
)

// DefaultBTCPriceUSD is the fixed BTC/USD rate used for equity valuation.
const DefaultBTCPriceUSD = 92430

// Generator produces explorer data. It holds only immutable configuration,
// so one Generator may serve concurrent callers.
type Generator struct {
	clock    clock.Clock
	btcPrice float64
	catalog  []model.Token
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the clock used for history labels.
func WithClock(c clock.Clock) Option {
	return func(g *Generator) {
		g.clock = c
	}
}

// WithBTCPrice sets the BTC/USD rate. It also reprices the BTC catalog entry.
func WithBTCPrice(usd float64) Option {
	return func(g *Generator) {
		g.btcPrice = usd
	}
}

// WithCatalog replaces the token catalog. Order matters: it is the draw order
// and the tie-break order for holdings.
func WithCatalog(tokens []model.Token) Option {
	return func(g *Generator) {
		g.catalog = append([]model.Token(nil), tokens...)
	}
}

// NewGenerator creates a Generator with the default catalog and BTC price.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		clock:    clock.Real(),
		btcPrice: DefaultBTCPriceUSD,
		catalog:  DefaultCatalog(),
	}

	for _, opt := range opts {
		opt(g)
	}

	for i := range g.catalog {
		if g.catalog[i].Symbol == SymbolBTC {
			g.catalog[i].Price = g.btcPrice
		}
	}

	return g
}

// Catalog returns a copy of the token catalog in draw order.
func (g *Generator) Catalog() []model.Token {
	return append([]model.Token(nil), g.catalog...)
}

// BTCPrice returns the BTC/USD rate.
func (g *Generator) BTCPrice() float64 {
	return g.btcPrice
}
