package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused per-host limiter is kept.
const limiterIdleTTL = 5 * time.Minute

type hostEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// hostLimiter keeps one token bucket per remote host.
type hostLimiter struct {
	rps   rate.Limit
	burst int

	mu        sync.Mutex
	hosts     map[string]*hostEntry
	lastSweep time.Time
}

func newHostLimiter(rps float64, burst int) *hostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &hostLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
		hosts: make(map[string]*hostEntry),
	}
}

func (l *hostLimiter) allow(host string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for h, e := range l.hosts {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.hosts, h)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.hosts[host]
	if !ok {
		e = &hostEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.hosts[host] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *hostLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hosts)
}

func (s *Server) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(remoteHost(r), time.Now()) {
			s.metrics.RecordRateLimited()
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
