package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bookshelf"

// Metrics holds the collectors for backend calls and route guard decisions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	guardDecisions  *prometheus.CounterVec
	sessionState    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		backendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls made to the book catalog backend",
		}, []string{"op", "outcome"}),

		backendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Book catalog backend call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions for protected screens",
		}, []string{"route", "decision"}),

		sessionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_authenticated",
			Help:      "1 while a session token is held, 0 otherwise",
		}),
	}
}

func (m *Metrics) ObserveBackend(op, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(op, outcome).Inc()
	m.backendDuration.WithLabelValues(op).Observe(took.Seconds())
}

func (m *Metrics) ObserveGuard(route string, allowed bool) {
	if m == nil {
		return
	}
	decision := "allow"
	if !allowed {
		decision = "redirect"
	}
	m.guardDecisions.WithLabelValues(route, decision).Inc()
}

func (m *Metrics) SetAuthenticated(authenticated bool) {
	if m == nil {
		return
	}
	if authenticated {
		m.sessionState.Set(1)
	} else {
		m.sessionState.Set(0)
	}
}
