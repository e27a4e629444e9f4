package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Address Explorer
// -----------------------------------------------------------------------------

// Badge is the size tier of an address, derived from its BTC equity.
type Badge string

const (
	BadgePlankton Badge = "Plankton"
	BadgeShrimp   Badge = "Shrimp"
	BadgeFish     Badge = "Fish"
	BadgeDolphin  Badge = "Dolphin"
	BadgeWhale    Badge = "Whale"
)

// Rank orders badges from Plankton (0) to Whale (4). Unknown badges rank -1.
func (b Badge) Rank() int {
	switch b {
	case BadgePlankton:
		return 0
	case BadgeShrimp:
		return 1
	case BadgeFish:
		return 2
	case BadgeDolphin:
		return 3
	case BadgeWhale:
		return 4
	default:
		return -1
	}
}

// AddressProfile summarises an address.
type AddressProfile struct {
	Address        string          `json:"address"`
	Equity         decimal.Decimal `json:"equity"`    // BTC, 4 decimal places
	EquityUSD      decimal.Decimal `json:"equityUSD"` // USD, 2 decimal places
	Badge          Badge           `json:"badge"`
	DaysSinceFirst int             `json:"daysSinceFirst"`
	TxCount        int             `json:"txCount"`
}

// Timeframe selects the window and density of an equity history.
type Timeframe string

const (
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	TimeframeAll Timeframe = "All"
)

// Timeframes lists the timeframes offered by the dashboard, shortest first.
var Timeframes = []Timeframe{Timeframe24h, Timeframe7d, Timeframe30d, TimeframeAll}

// Known reports whether tf is one of the dashboard timeframes.
func (tf Timeframe) Known() bool {
	switch tf {
	case Timeframe24h, Timeframe7d, Timeframe30d, TimeframeAll:
		return true
	}
	return false
}

// EquityPoint is one sample of an equity history.
type EquityPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Token is a catalog entry.
type Token struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Name   string  `json:"name" yaml:"name"`
	Price  float64 `json:"price" yaml:"price"` // USD per unit
	Icon   string  `json:"icon" yaml:"icon"`
}

// TokenHolding is a catalog token with a generated balance.
type TokenHolding struct {
	Token
	PriceFormatted string          `json:"priceFormatted"` // e.g. "$92,430" or "$0.0342"
	Balance        string          `json:"balance"`        // "4.061230" for BTC, "3,583" otherwise
	Value          decimal.Decimal `json:"value"`          // USD, 2 decimal places
	ValueNum       float64         `json:"valueNum"`       // unrounded USD value, sort key
}

// -----------------------------------------------------------------------------
// Live Tape
// -----------------------------------------------------------------------------

// TxType classifies a tape event.
type TxType string

const (
	TxContract TxType = "contract"
	TxTransfer TxType = "transfer"
	TxEtch     TxType = "etch"
	TxMint     TxType = "mint"
)

// TxTypes lists every TxType in draw order.
var TxTypes = []TxType{TxContract, TxTransfer, TxEtch, TxMint}

// TxMethods lists the human-readable method labels in draw order.
var TxMethods = []string{"Swap", "Mint Rune", "Transfer BTC", "Approve", "Staking"}

// TxEvent is a synthetic transaction pushed by the live broadcaster.
type TxEvent struct {
	Seq    uint64          `json:"seq"` // Per-broadcaster tick number, starting at 1
	Hash   string          `json:"hash"`
	Type   TxType          `json:"type"`
	Value  decimal.Decimal `json:"value"` // BTC, 4 decimal places
	Method string          `json:"method"`
	Time   time.Time       `json:"time"`
	From   string          `json:"from"`
	To     string          `json:"to"`
}

// -----------------------------------------------------------------------------
// Network Samples
// -----------------------------------------------------------------------------

// BlockSample is a simulated chain tip.
type BlockSample struct {
	Height uint64    `json:"height"`
	Hash   string    `json:"hash"`
	Time   time.Time `json:"time"`
}

// NetworkStats is a simulated network-wide activity sample.
type NetworkStats struct {
	TPS         decimal.Decimal `json:"tps"` // 1 decimal place
	Gas         int             `json:"gas"` // sat/vB
	RunesActive int             `json:"runesActive"`
}

// StatsSnapshot pairs a block sample with network stats taken together.
type StatsSnapshot struct {
	Block     BlockSample  `json:"block"`
	Network   NetworkStats `json:"network"`
	SampledAt time.Time    `json:"sampledAt"`
}

// FrameTypeTape marks a TapeFrame carrying tape events.
const FrameTypeTape = "tape"

// TapeFrame is one WebSocket message on the live tape stream.
type TapeFrame struct {
	Type    string    `json:"type"`
	Events  []TxEvent `json:"events"`
	Dropped int64     `json:"dropped,omitempty"` // Events skipped since the previous frame
}

// ErrorBody is the JSON body of an HTTP error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Health is the /health response.
type Health struct {
	Status     string          `json:"status"`
	Version    string          `json:"version"`
	Components HealthComponent `json:"components"`
}

// HealthComponent reports runtime state of the live tape.
type HealthComponent struct {
	Tape TapeHealth `json:"tape"`
}

// TapeHealth is a point-in-time view of the broadcaster.
type TapeHealth struct {
	Subscribers int   `json:"subscribers"`
	Running     bool  `json:"running"`
	Ticks       int64 `json:"ticks"`
	Sessions    int64 `json:"sessions"`
}
