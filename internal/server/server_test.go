package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/midl-pulse/internal/clock"
	"github.com/rickgao/midl-pulse/internal/engine"
	"github.com/rickgao/midl-pulse/internal/entropy"
	"github.com/rickgao/midl-pulse/internal/feed"
	"github.com/rickgao/midl-pulse/internal/metrics"
	"github.com/rickgao/midl-pulse/internal/model"
)

var epoch = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	clk    *clock.Manual
	engine *engine.Engine
	server *Server
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *fixture {
	t.Helper()
	clk := clock.NewManual(epoch)
	eng := engine.New(engine.DefaultConfig(),
		engine.WithClock(clk),
		engine.WithSource(entropy.Seeded(10, 20)),
	)
	srv := New(cfg, eng, nil, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
		eng.Close(ctx)
	})
	return &fixture{clk: clk, engine: eng, server: srv}
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestProfileEndpoint(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	rec := f.get(t, "/api/profile?address=AB")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	p := decode[model.AddressProfile](t, rec)
	assert.Equal(t, "AB", p.Address)
	assert.True(t, p.Equity.Equal(decimal.RequireFromString("1.3143")), "equity %s", p.Equity)
	assert.Equal(t, model.BadgeFish, p.Badge)
}

func TestProfileEndpoint_EmptyAddress(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	rec := f.get(t, "/api/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[model.AddressProfile](t, rec)
	assert.Equal(t, model.BadgeShrimp, p.Badge)
}

func TestHistoryEndpoint(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	tests := []struct {
		query string
		want  int
	}{
		{"/api/history?address=AB", 30},
		{"/api/history?address=AB&timeframe=24h", 24},
		{"/api/history?address=AB&timeframe=7d", 168},
		{"/api/history?address=AB&timeframe=All", 365},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := f.get(t, tt.query)
			require.Equal(t, http.StatusOK, rec.Code)
			points := decode[[]model.EquityPoint](t, rec)
			assert.Len(t, points, tt.want)
		})
	}
}

func TestHistoryEndpoint_UnknownTimeframe(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	rec := f.get(t, "/api/history?address=AB&timeframe=1y")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[model.ErrorBody](t, rec)
	assert.Equal(t, `unknown timeframe "1y"`, body.Error)
}

func TestHoldingsEndpoint(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	rec := f.get(t, "/api/holdings?address=AB")
	require.Equal(t, http.StatusOK, rec.Code)
	holdings := decode[[]model.TokenHolding](t, rec)
	require.Len(t, holdings, 6)
	assert.Equal(t, "ATOM", holdings[0].Symbol)
	assert.Equal(t, "8,504", holdings[0].Balance)
}

func TestSamplerEndpoints(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	rec := f.get(t, "/api/block")
	require.Equal(t, http.StatusOK, rec.Code)
	block := decode[model.BlockSample](t, rec)
	assert.GreaterOrEqual(t, block.Height, uint64(832129))
	assert.Len(t, block.Hash, 64)
	assert.True(t, block.Time.Equal(epoch))

	rec = f.get(t, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[model.NetworkStats](t, rec)
	assert.GreaterOrEqual(t, stats.RunesActive, 1240)
}

type fixedSnapshots struct {
	snap model.StatsSnapshot
	ok   bool
}

func (f fixedSnapshots) Latest() (model.StatsSnapshot, bool) { return f.snap, f.ok }

func TestSnapshotEndpoint(t *testing.T) {
	t.Run("no poller", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		rec := f.get(t, "/api/stats/snapshot")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("before first poll", func(t *testing.T) {
		f := newFixture(t, DefaultConfig(), WithSnapshots(fixedSnapshots{}))
		rec := f.get(t, "/api/stats/snapshot")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("cached", func(t *testing.T) {
		snap := model.StatsSnapshot{
			Block:     model.BlockSample{Height: 832130},
			Network:   model.NetworkStats{TPS: decimal.RequireFromString("42.5"), Gas: 9, RunesActive: 1250},
			SampledAt: epoch,
		}
		f := newFixture(t, DefaultConfig(), WithSnapshots(fixedSnapshots{snap: snap, ok: true}))
		rec := f.get(t, "/api/stats/snapshot")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[model.StatsSnapshot](t, rec)
		assert.Equal(t, uint64(832130), got.Block.Height)
		assert.Equal(t, 9, got.Network.Gas)
	})
}

func TestRecentEndpoint(t *testing.T) {
	t.Run("without history", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		rec := f.get(t, "/api/tape/recent")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})

	t.Run("newest first", func(t *testing.T) {
		clk := clock.NewManual(epoch)
		eng := engine.New(engine.DefaultConfig(), engine.WithClock(clk))
		defer eng.Close(context.Background())

		recent, err := feed.NewRecent(eng.Tape(), 5)
		require.NoError(t, err)

		seen := make(chan struct{}, 8)
		_, err = eng.Subscribe(func(model.TxEvent) { seen <- struct{}{} })
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			clk.Tick()
			<-seen
		}

		srv := New(DefaultConfig(), eng, nil, WithRecent(recent))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tape/recent", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		events := decode[[]model.TxEvent](t, rec)
		require.Len(t, events, 3)
		assert.Equal(t, uint64(3), events[0].Seq)
		assert.Equal(t, uint64(1), events[2].Seq)
	})
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	rec := f.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[model.Health](t, rec)
	assert.Equal(t, "ok", h.Status)
	assert.NotEmpty(t, h.Version)
	assert.False(t, h.Components.Tape.Running)
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 2
	m := metrics.New("")
	f := newFixture(t, cfg, WithMetrics(m))

	assert.Equal(t, http.StatusOK, f.get(t, "/api/block").Code)
	assert.Equal(t, http.StatusOK, f.get(t, "/api/stats").Code)

	rec := f.get(t, "/api/block")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Health and metrics are not limited.
	assert.Equal(t, http.StatusOK, f.get(t, "/health").Code)

	body := f.get(t, "/metrics").Body.String()
	assert.Contains(t, body, "midl_pulse_http_rate_limited_total 1")
	assert.Contains(t, body, `midl_pulse_http_requests_total{code="429",route="GET /api/block"} 1`)
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 0
	f := newFixture(t, cfg)

	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, f.get(t, "/api/block").Code)
	}
}

func TestHostLimiter_PerHostAndSweep(t *testing.T) {
	l := newHostLimiter(0.001, 1)

	assert.True(t, l.allow("10.0.0.1", epoch))
	assert.False(t, l.allow("10.0.0.1", epoch))
	assert.True(t, l.allow("10.0.0.2", epoch))
	assert.Equal(t, 2, l.size())

	assert.True(t, l.allow("10.0.0.3", epoch.Add(2*limiterIdleTTL)))
	assert.Equal(t, 1, l.size())
}

func TestMetricsNotMountedWithoutMetrics(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	assert.Equal(t, http.StatusNotFound, f.get(t, "/metrics").Code)
}

func dialTape(t *testing.T, f *fixture) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(f.server.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/tape"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	waitFor(t, func() bool { return f.engine.Tape().Stats().Subscribers == 1 })
	return conn, ts
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) model.TapeFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame model.TapeFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestTapeSession_StreamsFrames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 1
	f := newFixture(t, cfg)

	conn, _ := dialTape(t, f)
	assert.Equal(t, 1, f.clk.Active())

	f.clk.Tick()
	frame := readFrame(t, conn)
	assert.Equal(t, model.FrameTypeTape, frame.Type)
	require.Len(t, frame.Events, 1)
	assert.Equal(t, uint64(1), frame.Events[0].Seq)
	assert.True(t, frame.Events[0].Time.Equal(epoch))

	f.clk.Tick()
	frame = readFrame(t, conn)
	require.Len(t, frame.Events, 1)
	assert.Equal(t, uint64(2), frame.Events[0].Seq)

	waitFor(t, func() bool { return f.server.Sessions() == 1 })
}

func TestTapeSession_BatchesOnFlushInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 10
	cfg.FlushInterval = 50 * time.Millisecond
	f := newFixture(t, cfg)

	conn, _ := dialTape(t, f)

	for i := 0; i < 3; i++ {
		f.clk.Tick()
	}

	var seqs []uint64
	for len(seqs) < 3 {
		frame := readFrame(t, conn)
		for _, ev := range frame.Events {
			seqs = append(seqs, ev.Seq)
		}
	}
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestTapeSession_DisconnectUnsubscribes(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	conn, _ := dialTape(t, f)
	waitFor(t, func() bool { return f.server.Sessions() == 1 })

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	waitFor(t, func() bool { return f.engine.Tape().Stats().Subscribers == 0 })
	waitFor(t, func() bool { return f.server.Sessions() == 0 })
	assert.Equal(t, 0, f.clk.Active())
}

func TestTapeSession_StopClosesSessions(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	conn, _ := dialTape(t, f)

	require.NoError(t, f.server.Stop(context.Background()))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var err error
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "err = %v", err)
	waitFor(t, func() bool { return f.engine.Tape().Stats().Subscribers == 0 })
}

func TestTapeSession_RejectedAfterEngineClose(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.engine.Close(context.Background()))

	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/tape"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseTryAgainLater), "err = %v", err)
}

func TestServer_ServeAndStop(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- f.server.Serve(l) }()

	url := "http://" + l.Addr().String() + "/health"
	waitFor(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})

	require.NoError(t, f.server.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestServer_ServeAfterStop(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.server.Stop(context.Background()))

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, f.server.Serve(l))
}

func TestSession_CloseFrameOnlyOnServerStop(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	defer stop()

	s := &session{parent: parent}
	s.ctx, s.cancel = context.WithCancel(parent)

	// Client disconnect cancels only the session context.
	s.cancel()
	assert.Nil(t, s.closeFrame())

	stop()
	frame := s.closeFrame()
	require.NotNil(t, frame)
	assert.Equal(t, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), frame)
}
