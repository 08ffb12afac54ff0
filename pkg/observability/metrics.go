package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics are the Prometheus series recorded by the API client.
type ClientMetrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	invalidations *prometheus.CounterVec
}

// NewClientMetrics creates the client series and registers them on reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &ClientMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiclient_requests_total",
				Help: "API client requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apiclient_request_duration_seconds",
				Help:    "Latency of API client requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "apiclient_in_flight_requests",
			Help: "API client requests currently awaiting a response",
		}),
		invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiclient_session_invalidations_total",
				Help: "Times the stored credential was cleared, by source",
			},
			[]string{"source"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.inFlight, m.invalidations)
	return m
}

// Start marks a request in flight and returns the function that completes it
// with its outcome.
func (m *ClientMetrics) Start(method string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.inFlight.Inc()
	return func(outcome string) {
		m.inFlight.Dec()
		m.requests.WithLabelValues(method, outcome).Inc()
		m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}

// SessionInvalidated counts a credential clear caused by source
// ("request" or "redirect").
func (m *ClientMetrics) SessionInvalidated(source string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(source).Inc()
}
