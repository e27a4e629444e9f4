package explorer

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rickgao/midl-pulse/internal/model"
	"github.com/rickgao/midl-pulse/internal/prng"
)

// holdingsSeedOffset separates the holdings derivation from the profile and
// history derivations of the same address.
const holdingsSeedOffset = 42

// Holdings returns one holding per catalog token, sorted by value descending.
// Equal values keep catalog order.
func (g *Generator) Holdings(address string) []model.TokenHolding {
	rng := prng.NewStream(prng.Seed(address) + holdingsSeedOffset)

	holdings := make([]model.TokenHolding, 0, len(g.catalog))
	for _, token := range g.catalog {
		var balance float64
		if token.Symbol == SymbolBTC {
			balance = rng.Next()*5 + 0.001
		} else {
			balance = rng.Next()*10000 + 1
		}
		value := balance * token.Price

		holdings = append(holdings, model.TokenHolding{
			Token:          token,
			PriceFormatted: formatPrice(token.Price),
			Balance:        formatBalance(token.Symbol, balance),
			Value:          decimal.NewFromFloat(value).Round(model.USDPlaces),
			ValueNum:       value,
		})
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].ValueNum > holdings[j].ValueNum
	})

	return holdings
}

func formatBalance(symbol string, balance float64) string {
	if symbol == SymbolBTC {
		return decimal.NewFromFloat(balance).StringFixed(6)
	}
	return groupInt(int64(math.Floor(balance)))
}
