package sampler

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rickgao/midl-pulse/internal/clock"
	"github.com/rickgao/midl-pulse/internal/entropy"
)

var epoch = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestSampler() *Sampler {
	return New(DefaultConfig(),
		WithClock(clock.NewManual(epoch)),
		WithSource(entropy.Seeded(5, 8)),
	)
}

func TestLatestBlock_Bounds(t *testing.T) {
	s := newTestSampler()

	for i := 0; i < 500; i++ {
		b := s.LatestBlock()
		assert.GreaterOrEqual(t, b.Height, uint64(832129))
		assert.Less(t, b.Height, uint64(832139))
		assert.Len(t, b.Hash, 64)
		assert.True(t, strings.HasPrefix(b.Hash, "0000000000000000"))
		assert.Equal(t, strings.Trim(b.Hash, "0123456789abcdef"), "")
		assert.Equal(t, epoch, b.Time)
	}
}

func TestNetworkStats_Bounds(t *testing.T) {
	s := newTestSampler()

	for i := 0; i < 500; i++ {
		n := s.NetworkStats()
		assert.True(t, n.TPS.GreaterThanOrEqual(decimal.NewFromInt(20)), "tps %s", n.TPS)
		assert.True(t, n.TPS.LessThanOrEqual(decimal.NewFromInt(70)), "tps %s", n.TPS)
		assert.Equal(t, n.TPS, n.TPS.Round(1))
		assert.GreaterOrEqual(t, n.Gas, 5)
		assert.Less(t, n.Gas, 25)
		assert.GreaterOrEqual(t, n.RunesActive, 1240)
		assert.Less(t, n.RunesActive, 1290)
	}
}

func TestNew_ClampsJitter(t *testing.T) {
	s := New(Config{BaseHeight: 100}, WithSource(entropy.Seeded(1, 1)))
	for i := 0; i < 10; i++ {
		assert.Equal(t, uint64(100), s.LatestBlock().Height)
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestSampler()
	snap := s.Snapshot()
	assert.Equal(t, epoch, snap.SampledAt)
	assert.Equal(t, epoch, snap.Block.Time)
	assert.NotZero(t, snap.Network.Gas)
}
