package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBackend(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveBackend("list_books", "success", 10*time.Millisecond)
	m.ObserveBackend("list_books", "success", 20*time.Millisecond)
	m.ObserveBackend("list_books", "transport_error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("list_books", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("list_books", "transport_error")))
}

func TestObserveGuardAndSession(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveGuard("/books", false)
	m.ObserveGuard("/books", true)
	m.ObserveGuard("/books", true)
	m.SetAuthenticated(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.guardDecisions.WithLabelValues("/books", "redirect")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.guardDecisions.WithLabelValues("/books", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionState))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackend("login", "success", time.Second)
		m.ObserveGuard("/books", true)
		m.SetAuthenticated(false)
	})
}
