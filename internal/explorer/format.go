package explorer

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// groupInt renders n with thousands separators ("12,345").
func groupInt(n int64) string {
	return printer.Sprintf("%d", n)
}

// formatPrice renders a USD unit price the way the holdings table shows it:
// grouped with at most three decimals at or above $1, plain below.
func formatPrice(price float64) string {
	if price < 1 {
		return "$" + strconv.FormatFloat(price, 'f', -1, 64)
	}

	s := decimal.NewFromFloat(price).Round(3).String()
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return "$" + s
	}
	if frac == "" {
		return "$" + groupInt(n)
	}
	return "$" + groupInt(n) + "." + frac
}
