package explorer

import (
	"math"
	"time"

	"github.com/rickgao/midl-pulse/internal/model"
	"github.com/rickgao/midl-pulse/internal/prng"
)

// minEquityValue is the floor applied to every history point.
const minEquityValue = 100

// PointCount returns the number of history points for tf. Unknown timeframes
// get the 30d count.
func PointCount(tf model.Timeframe) int {
	switch tf {
	case model.Timeframe24h:
		return 24
	case model.Timeframe7d:
		return 7 * 24
	case model.TimeframeAll:
		return 365
	default:
		return 30
	}
}

// History returns the equity series of address over tf, oldest first.
//
// The stream is seeded with the address seed plus the character length of
// the timeframe label, so each timeframe gets its own series.
func (g *Generator) History(address string, tf model.Timeframe) []model.EquityPoint {
	rng := prng.NewStream(prng.Seed(address) + int64(prng.CharCount(string(tf))))

	count := PointCount(tf)
	volatility := 0.03
	if tf == model.Timeframe24h {
		volatility = 0.01
	}
	step, layout := labelStep(tf)
	now := g.clock.Now()

	val := rng.Next()*40000 + 5000
	points := make([]model.EquityPoint, 0, count)

	for i := 0; i < count; i++ {
		val = val * (1 + (rng.Next()-0.48)*volatility)
		val = math.Max(val, minEquityValue)

		at := now.Add(-time.Duration(count-i) * step)
		points = append(points, model.EquityPoint{
			Label: at.Format(layout),
			Value: val,
		})
	}

	return points
}

// labelStep returns the spacing between points and the label layout.
func labelStep(tf model.Timeframe) (time.Duration, string) {
	switch tf {
	case model.Timeframe24h:
		return time.Hour, "15:04"
	case model.Timeframe7d:
		return time.Hour, "Jan 2"
	default:
		return 24 * time.Hour, "Jan 2"
	}
}
