package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/midl-pulse/internal/clock"
	"github.com/rickgao/midl-pulse/internal/entropy"
	"github.com/rickgao/midl-pulse/internal/model"
)

var epoch = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestBroadcaster(t *testing.T) (*Broadcaster, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	b := NewBroadcaster(DefaultConfig(), nil,
		WithClock(clk),
		WithSource(entropy.Seeded(1, 2)),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = b.Close(ctx)
	})
	return b, clk
}

// recorder collects delivered events and signals each one.
type recorder struct {
	name  string
	mu    sync.Mutex
	got   []model.TxEvent
	ch    chan model.TxEvent
	order *[]string
	omu   *sync.Mutex
}

func newRecorder(name string, order *[]string, omu *sync.Mutex) *recorder {
	return &recorder{name: name, ch: make(chan model.TxEvent, 16), order: order, omu: omu}
}

func (r *recorder) handle(ev model.TxEvent) {
	r.mu.Lock()
	r.got = append(r.got, ev)
	r.mu.Unlock()
	if r.order != nil {
		r.omu.Lock()
		*r.order = append(*r.order, r.name)
		r.omu.Unlock()
	}
	r.ch <- ev
}

func (r *recorder) wait(t *testing.T) model.TxEvent {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("%s: timed out waiting for event", r.name)
		return model.TxEvent{}
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBroadcaster_IdleUntilFirstSubscribe(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	assert.Equal(t, 0, clk.Active())
	assert.False(t, b.Stats().Running)

	sub, err := b.Subscribe(func(model.TxEvent) {})
	require.NoError(t, err)
	assert.NotEqual(t, [16]byte{}, [16]byte(sub.ID))
	assert.Equal(t, 1, clk.Active())
	assert.True(t, b.Stats().Running)
}

func TestBroadcaster_FanOutSameEventInOrder(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	var order []string
	var omu sync.Mutex
	first := newRecorder("first", &order, &omu)
	second := newRecorder("second", &order, &omu)

	_, err := b.Subscribe(first.handle)
	require.NoError(t, err)
	_, err = b.Subscribe(second.handle)
	require.NoError(t, err)

	assert.Equal(t, 1, clk.Active(), "subscribers must share one ticker")
	assert.Equal(t, 1, clk.Tick())

	a := first.wait(t)
	c := second.wait(t)
	assert.Equal(t, a, c)
	assert.Equal(t, uint64(1), a.Seq)
	assert.Equal(t, epoch, a.Time)

	omu.Lock()
	assert.Equal(t, []string{"first", "second"}, order)
	omu.Unlock()

	assert.Equal(t, 1, clk.Tick())
	assert.Equal(t, uint64(2), first.wait(t).Seq)
	assert.Equal(t, uint64(2), second.wait(t).Seq)
	assert.Equal(t, int64(2), b.Stats().Ticks)
}

func TestBroadcaster_StopsOnLastUnsubscribe(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	r1 := newRecorder("r1", nil, nil)
	r2 := newRecorder("r2", nil, nil)
	s1, err := b.Subscribe(r1.handle)
	require.NoError(t, err)
	s2, err := b.Subscribe(r2.handle)
	require.NoError(t, err)

	s1.Unsubscribe()
	assert.Equal(t, 1, clk.Active())
	assert.Equal(t, 1, b.Stats().Subscribers)

	clk.Tick()
	r2.wait(t)
	assert.Equal(t, 0, r1.count())

	s2.Unsubscribe()
	assert.Equal(t, 0, clk.Active())
	assert.False(t, b.Stats().Running)
	assert.Equal(t, 0, clk.Tick())
	assert.Equal(t, 1, r2.count())
}

func TestBroadcaster_RestartAfterIdle(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	s, err := b.Subscribe(func(model.TxEvent) {})
	require.NoError(t, err)
	s.Unsubscribe()
	require.Equal(t, 0, clk.Active())

	r := newRecorder("r", nil, nil)
	_, err = b.Subscribe(r.handle)
	require.NoError(t, err)
	assert.Equal(t, 1, clk.Active())

	clk.Tick()
	ev := r.wait(t)
	assert.Equal(t, uint64(1), ev.Seq)
}

func TestBroadcaster_UnsubscribeIsIdempotent(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	s, err := b.Subscribe(func(model.TxEvent) {})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		s.Unsubscribe()
		s.Unsubscribe()
	})
	assert.Equal(t, 0, clk.Active())

	other := newRecorder("other", nil, nil)
	_, err = b.Subscribe(other.handle)
	require.NoError(t, err)

	// A stale handle must not remove anyone else or stop the ticker.
	s.Unsubscribe()
	assert.Equal(t, 1, b.Stats().Subscribers)
	assert.Equal(t, 1, clk.Active())

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Unsubscribe)
}

func TestBroadcaster_UnsubscribeFromInsideHandler(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	var self *Subscription
	calls := make(chan struct{}, 4)
	ready := make(chan struct{})
	s, err := b.Subscribe(func(model.TxEvent) {
		<-ready
		self.Unsubscribe()
		calls <- struct{}{}
	})
	require.NoError(t, err)
	self = s
	close(ready)

	after := newRecorder("after", nil, nil)
	_, err = b.Subscribe(after.handle)
	require.NoError(t, err)

	clk.Tick()
	<-calls
	after.wait(t)

	clk.Tick()
	after.wait(t)
	assert.Len(t, calls, 0)
	assert.Equal(t, 1, b.Stats().Subscribers)
}

func TestBroadcaster_LastSubscriberLeavesFromInsideHandler(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	var self *Subscription
	ready := make(chan struct{})
	done := make(chan struct{}, 1)
	s, err := b.Subscribe(func(model.TxEvent) {
		<-ready
		self.Unsubscribe()
		done <- struct{}{}
	})
	require.NoError(t, err)
	self = s
	close(ready)

	clk.Tick()
	<-done

	assert.Equal(t, 0, clk.Active())
	assert.False(t, b.Stats().Running)
	assert.Equal(t, 0, clk.Tick())
}

func TestBroadcaster_UnsubscribeSiblingMidTick(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	var later *Subscription
	ready := make(chan struct{})
	first := newRecorder("first", nil, nil)
	_, err := b.Subscribe(func(ev model.TxEvent) {
		<-ready
		later.Unsubscribe()
		first.handle(ev)
	})
	require.NoError(t, err)

	second := newRecorder("second", nil, nil)
	later, err = b.Subscribe(second.handle)
	require.NoError(t, err)
	close(ready)

	clk.Tick()
	first.wait(t)

	clk.Tick()
	first.wait(t)
	assert.Equal(t, 0, second.count())
}

func TestBroadcaster_PanickingSubscriberIsIsolated(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	_, err := b.Subscribe(func(model.TxEvent) { panic("boom") })
	require.NoError(t, err)
	healthy := newRecorder("healthy", nil, nil)
	_, err = b.Subscribe(healthy.handle)
	require.NoError(t, err)

	clk.Tick()
	healthy.wait(t)
	clk.Tick()
	healthy.wait(t)

	waitFor(t, func() bool { return b.Stats().Panics == 2 })
	assert.True(t, b.Stats().Running)
}

func TestBroadcaster_Close(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	s, err := b.Subscribe(func(model.TxEvent) {})
	require.NoError(t, err)

	require.NoError(t, b.Close(context.Background()))
	assert.Equal(t, 0, clk.Active())
	assert.Equal(t, 0, b.Stats().Subscribers)

	assert.NotPanics(t, s.Unsubscribe)

	_, err = b.Subscribe(func(model.TxEvent) {})
	assert.ErrorIs(t, err, ErrClosed)

	assert.NoError(t, b.Close(context.Background()))
}

func TestBroadcaster_RejectsNilHandler(t *testing.T) {
	b, _ := newTestBroadcaster(t)
	_, err := b.Subscribe(nil)
	assert.Error(t, err)
}

func TestBroadcaster_ConcurrentSubscribe(t *testing.T) {
	b, clk := newTestBroadcaster(t)

	var wg sync.WaitGroup
	subs := make([]*Subscription, 32)
	for i := range subs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := b.Subscribe(func(model.TxEvent) {})
			if err == nil {
				subs[i] = s
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 32, b.Stats().Subscribers)
	assert.Equal(t, 1, clk.Active())

	for _, s := range subs {
		wg.Add(1)
		go func(s *Subscription) {
			defer wg.Done()
			s.Unsubscribe()
		}(s)
	}
	wg.Wait()

	assert.Equal(t, 0, b.Stats().Subscribers)
	assert.Equal(t, 0, clk.Active())
}

func TestNewBroadcaster_DefaultsInterval(t *testing.T) {
	b := NewBroadcaster(Config{}, nil)
	assert.Equal(t, DefaultInterval, b.cfg.Interval)
}
