package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace is used when New is given an empty namespace.
const DefaultNamespace = "midl_pulse"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Tape metrics
	TapeTicks            prometheus.Counter
	TapeDeliveries       prometheus.Counter
	TapeSubscriberPanics prometheus.Counter
	TapeSubscribers      prometheus.Gauge

	// Session metrics
	TapeSessions      prometheus.Gauge
	TapeFramesSent    prometheus.Counter
	TapeEventsDropped prometheus.Counter

	// Sampler metrics
	SamplerPolls      prometheus.Counter
	SamplerLastHeight prometheus.Gauge

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRateLimited     prometheus.Counter
}

// New creates a Metrics instance registered on its own registry, together
// with the Go runtime and process collectors.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TapeTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tape",
			Name:      "ticks_total",
			Help:      "Total number of events generated by the tape broadcaster",
		}),
		TapeDeliveries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tape",
			Name:      "deliveries_total",
			Help:      "Total number of events handed to subscribers",
		}),
		TapeSubscriberPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tape",
			Name:      "subscriber_panics_total",
			Help:      "Total number of subscriber callbacks that panicked",
		}),
		TapeSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tape",
			Name:      "subscribers",
			Help:      "Current number of tape subscribers",
		}),

		TapeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Current number of live tape WebSocket sessions",
		}),
		TapeFramesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "frames_sent_total",
			Help:      "Total number of tape frames written to WebSocket sessions",
		}),
		TapeEventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "events_dropped_total",
			Help:      "Total number of events dropped because a session fell behind",
		}),

		SamplerPolls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "polls_total",
			Help:      "Total number of network snapshots taken",
		}),
		SamplerLastHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "last_block_height",
			Help:      "Block height of the most recent snapshot",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"route"}),
		HTTPRateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTick increments the tape tick counter.
func (m *Metrics) RecordTick() {
	if m == nil {
		return
	}
	m.TapeTicks.Inc()
}

// RecordDelivery increments the delivery counter.
func (m *Metrics) RecordDelivery() {
	if m == nil {
		return
	}
	m.TapeDeliveries.Inc()
}

// RecordSubscriberPanic increments the subscriber panic counter.
func (m *Metrics) RecordSubscriberPanic() {
	if m == nil {
		return
	}
	m.TapeSubscriberPanics.Inc()
}

// SetSubscribers updates the subscriber gauge.
func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.TapeSubscribers.Set(float64(n))
}

// SessionOpened increments the live session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.TapeSessions.Inc()
}

// SessionClosed decrements the live session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.TapeSessions.Dec()
}

// RecordFrame records a frame written to a session and how many events the
// session dropped since its previous frame.
func (m *Metrics) RecordFrame(dropped int64) {
	if m == nil {
		return
	}
	m.TapeFramesSent.Inc()
	if dropped > 0 {
		m.TapeEventsDropped.Add(float64(dropped))
	}
}

// RecordPoll records a sampler snapshot.
func (m *Metrics) RecordPoll(height uint64) {
	if m == nil {
		return
	}
	m.SamplerPolls.Inc()
	m.SamplerLastHeight.Set(float64(height))
}

// RecordHTTP records a completed HTTP request.
func (m *Metrics) RecordHTTP(route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordRateLimited increments the rate limited counter.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.HTTPRateLimited.Inc()
}
