package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/midl-pulse/internal/feed"
	"github.com/rickgao/midl-pulse/internal/metrics"
	"github.com/rickgao/midl-pulse/internal/model"
)

const (
	sessionWriteWait  = 5 * time.Second
	sessionPongWait   = 60 * time.Second
	sessionPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (s *Server) handleTape(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("tape upgrade failed", "error", err)
		return
	}

	sess := newSession(conn, s.cfg, s.logger, s.metrics)
	if err := sess.start(s.ctx, s.engine.Tape()); err != nil {
		s.logger.Warn("tape session rejected", "error", err)
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "tape unavailable"),
			time.Now().Add(time.Second),
		)
		conn.Close()
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Add(-1)
	sess.wait()
}

// session streams the tape to one WebSocket client. The broadcaster feeds a
// bounded buffer; a single writer goroutine drains it in batches so a slow
// client never stalls the tick goroutine.
type session struct {
	id      uuid.UUID
	conn    *websocket.Conn
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	buf    *feed.Buffer[model.TxEvent]
	notify chan struct{}
	sub    *feed.Subscription

	dropped int64 // drop count already reported

	parent context.Context // server lifetime; done only after Server.Stop
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSession(conn *websocket.Conn, cfg Config, logger *slog.Logger, m *metrics.Metrics) *session {
	id := uuid.New()
	return &session{
		id:      id,
		conn:    conn,
		cfg:     cfg,
		logger:  logger.With("session", id.String()),
		metrics: m,
		buf:     feed.NewBuffer[model.TxEvent](cfg.BatchSize, cfg.SessionBuffer),
		notify:  make(chan struct{}, 1),
	}
}

// start subscribes to the tape and launches the read and write loops.
func (s *session) start(ctx context.Context, tape *feed.Broadcaster) error {
	sub, err := tape.Subscribe(s.enqueue)
	if err != nil {
		return err
	}
	s.sub = sub
	s.parent = ctx
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()

	s.metrics.SessionOpened()
	s.logger.Info("tape session opened", "remote", s.conn.RemoteAddr().String())
	return nil
}

// wait blocks until both loops exit, then releases the subscription.
func (s *session) wait() {
	s.wg.Wait()

	s.sub.Unsubscribe()
	s.buf.Close()
	s.conn.Close()

	s.metrics.SessionClosed()
	s.logger.Info("tape session closed", "dropped", s.buf.Stats().Dropped)
}

// enqueue runs on the broadcaster goroutine and must not block.
func (s *session) enqueue(ev model.TxEvent) {
	if !s.buf.Send(ev) {
		return
	}
	if s.buf.Len() >= s.cfg.BatchSize {
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

// closeFrame returns the close frame to send when the write loop exits, or
// nil when the client went away first. The read side already answered a
// client close.
func (s *session) closeFrame() []byte {
	if s.parent == nil || s.parent.Err() == nil {
		return nil
	}
	return websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
}

// readLoop discards client messages and detects disconnects.
func (s *session) readLoop() {
	defer s.wg.Done()
	defer s.cancel()

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(sessionPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(sessionPongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("tape session read error", "error", err)
			}
			return
		}
	}
}

// writeLoop flushes on a full batch or on the flush interval, whichever
// comes first, and keeps the connection alive with pings.
func (s *session) writeLoop() {
	defer s.wg.Done()
	defer s.cancel()
	defer s.conn.Close() // unblocks readLoop

	flushTicker := time.NewTicker(s.cfg.FlushInterval)
	defer flushTicker.Stop()
	pingTicker := time.NewTicker(sessionPingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			if frame := s.closeFrame(); frame != nil {
				s.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
			}
			return
		case <-s.notify:
			if err := s.flush(); err != nil {
				return
			}
		case <-flushTicker.C:
			if err := s.flush(); err != nil {
				return
			}
		case <-pingTicker.C:
			s.conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("tape session ping failed", "error", err)
				return
			}
		}
	}
}

// flush writes every queued event in frames of at most BatchSize.
func (s *session) flush() error {
	for {
		batch := s.buf.DrainTo(s.cfg.BatchSize)
		if len(batch) == 0 {
			return nil
		}

		dropped := s.buf.Stats().Dropped
		frame := model.TapeFrame{
			Type:    model.FrameTypeTape,
			Events:  batch,
			Dropped: dropped - s.dropped,
		}
		s.dropped = dropped

		data, err := json.Marshal(frame)
		if err != nil {
			s.logger.Error("failed to encode tape frame", "error", err)
			return err
		}

		s.conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("tape session write failed", "error", err)
			return err
		}
		s.metrics.RecordFrame(frame.Dropped)
	}
}
