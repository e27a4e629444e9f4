package sampler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/midl-pulse/internal/clock"
	"github.com/rickgao/midl-pulse/internal/entropy"
	"github.com/rickgao/midl-pulse/internal/model"
)

func TestPoller_PollsImmediatelyAndOnTick(t *testing.T) {
	clk := clock.NewManual(epoch)
	s := New(DefaultConfig(), WithClock(clk), WithSource(entropy.Seeded(9, 9)))

	polled := make(chan model.StatsSnapshot, 4)
	handler := SnapshotHandlerFunc(func(snap model.StatsSnapshot) error {
		polled <- snap
		return nil
	})

	p := NewPoller(PollerConfig{Interval: time.Hour}, s, handler, nil, WithPollerClock(clk))

	_, ok := p.Latest()
	assert.False(t, ok)

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop(context.Background())

	first := <-polled
	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, first, latest)

	clk.Advance(time.Hour)
	assert.Equal(t, 1, clk.Tick())

	select {
	case snap := <-polled:
		assert.Equal(t, epoch.Add(time.Hour), snap.SampledAt)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second poll")
	}
}

func TestPoller_HandlerErrorDoesNotStopPolling(t *testing.T) {
	clk := clock.NewManual(epoch)
	s := New(DefaultConfig(), WithClock(clk), WithSource(entropy.Seeded(1, 2)))

	var calls atomic.Int32
	handler := SnapshotHandlerFunc(func(model.StatsSnapshot) error {
		calls.Add(1)
		return errors.New("sink unavailable")
	})

	p := NewPoller(PollerConfig{Interval: time.Minute}, s, handler, nil, WithPollerClock(clk))
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop(context.Background())

	clk.Tick()
	clk.Tick()

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestPoller_StartStop(t *testing.T) {
	clk := clock.NewManual(epoch)
	p := NewPoller(PollerConfig{}, New(DefaultConfig()), nil, nil, WithPollerClock(clk))
	assert.Equal(t, 5*time.Second, p.cfg.Interval)

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, 1, clk.Active())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	assert.Equal(t, 0, clk.Active())
}
