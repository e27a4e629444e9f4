package explorer

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rickgao/midl-pulse/internal/model"
	"github.com/rickgao/midl-pulse/internal/prng"
)

// Badge thresholds in BTC, checked high to low. Equity must exceed the
// threshold to earn the badge.
const (
	whaleMin   = 10
	dolphinMin = 5
	fishMin    = 1
	shrimpMin  = 0.1
)

// BadgeOf classifies an equity in BTC.
func BadgeOf(equity float64) model.Badge {
	switch {
	case equity > whaleMin:
		return model.BadgeWhale
	case equity > dolphinMin:
		return model.BadgeDolphin
	case equity > fishMin:
		return model.BadgeFish
	case equity > shrimpMin:
		return model.BadgeShrimp
	default:
		return model.BadgePlankton
	}
}

// Profile returns the profile of address.
func (g *Generator) Profile(address string) model.AddressProfile {
	rng := prng.NewStream(prng.Seed(address))

	equity := rng.Next()*50 + 0.5
	days := int(math.Floor(rng.Next()*1000)) + 30
	txCount := int(math.Floor(rng.Next()*5000)) + 10

	return model.AddressProfile{
		Address:        address,
		Equity:         decimal.NewFromFloat(equity).Round(model.EquityPlaces),
		EquityUSD:      decimal.NewFromFloat(equity * g.btcPrice).Round(model.USDPlaces),
		Badge:          BadgeOf(equity),
		DaysSinceFirst: days,
		TxCount:        txCount,
	}
}
