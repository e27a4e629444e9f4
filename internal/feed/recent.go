package feed

import (
	"github.com/rickgao/midl-pulse/internal/model"
)

// DefaultRecentSize is the number of events Recent keeps by default.
const DefaultRecentSize = 50

// Recent keeps the newest events seen on a broadcaster.
type Recent struct {
	buf *Buffer[model.TxEvent]
	sub *Subscription
}

// NewRecent subscribes to b and retains the last size events.
func NewRecent(b *Broadcaster, size int) (*Recent, error) {
	if size < 1 {
		size = DefaultRecentSize
	}

	r := &Recent{buf: NewBuffer[model.TxEvent](size, size)}
	sub, err := b.Subscribe(func(ev model.TxEvent) { r.buf.Send(ev) })
	if err != nil {
		return nil, err
	}
	r.sub = sub
	return r, nil
}

// Events returns the retained events, newest first.
func (r *Recent) Events() []model.TxEvent {
	events := r.buf.Snapshot()
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events
}

// Len returns the number of retained events.
func (r *Recent) Len() int {
	return r.buf.Len()
}

// Close unsubscribes from the broadcaster. Retained events stay readable.
func (r *Recent) Close() {
	r.sub.Unsubscribe()
}
