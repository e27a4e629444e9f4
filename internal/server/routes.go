package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rickgao/midl-pulse/internal/model"
	"github.com/rickgao/midl-pulse/internal/version"
)

// defaultTimeframe is used when /api/history omits timeframe.
const defaultTimeframe = model.Timeframe30d

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.instrument(s.rateLimit(h)))
	}

	api("GET /api/profile", s.handleProfile)
	api("GET /api/history", s.handleHistory)
	api("GET /api/holdings", s.handleHoldings)
	api("GET /api/block", s.handleBlock)
	api("GET /api/stats", s.handleStats)
	api("GET /api/stats/snapshot", s.handleSnapshot)
	api("GET /api/tape/recent", s.handleRecent)

	mux.HandleFunc("GET /ws/tape", s.handleTape)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.metrics != nil {
		mux.Handle("GET "+s.cfg.MetricsPath, s.metrics.Handler())
	}

	return mux
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Profile(r.URL.Query().Get("address")))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tf := defaultTimeframe
	if raw := q.Get("timeframe"); raw != "" {
		tf = model.Timeframe(raw)
	}
	if !tf.Known() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown timeframe %q", tf))
		return
	}

	writeJSON(w, http.StatusOK, s.engine.History(q.Get("address"), tf))
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Holdings(r.URL.Query().Get("address")))
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.LatestBlock())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.NetworkStats())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "stats poller not running")
		return
	}
	snap, ok := s.snapshots.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	events := []model.TxEvent{}
	if s.recent != nil {
		events = s.recent.Events()
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Tape().Stats()
	writeJSON(w, http.StatusOK, model.Health{
		Status:  "ok",
		Version: version.Version,
		Components: model.HealthComponent{
			Tape: model.TapeHealth{
				Subscribers: stats.Subscribers,
				Running:     stats.Running,
				Ticks:       stats.Ticks,
				Sessions:    s.sessions.Load(),
			},
		},
	})
}

// instrument records request count and latency per route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.RecordHTTP(r.Pattern, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorBody{Error: msg})
}
