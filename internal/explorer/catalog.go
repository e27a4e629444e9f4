package explorer

import "github.com/rickgao/midl-pulse/internal/model"

// SymbolBTC is the catalog symbol whose balance is drawn in BTC units.
const SymbolBTC = "BTC"

// DefaultCatalog returns the six tokens shown in the holdings table.
func DefaultCatalog() []model.Token {
	return []model.Token{
		{Symbol: SymbolBTC, Name: "Bitcoin", Price: DefaultBTCPriceUSD, Icon: "₿"},
		{Symbol: "RUNE•MIDL", Name: "Midl Rune", Price: 0.0342, Icon: "◆"},
		{Symbol: "ORDI", Name: "Ordinals", Price: 28.50, Icon: "⊛"},
		{Symbol: "SATS", Name: "SATS (1000)", Price: 0.00032, Icon: "✧"},
		{Symbol: "PIPE", Name: "Pipe Protocol", Price: 1.84, Icon: "⊡"},
		{Symbol: "ATOM", Name: "Atomicals", Price: 12.30, Icon: "⚛"},
	}
}
