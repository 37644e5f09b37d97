package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for sessions and simulator operations.
type Metrics struct {
	// Simulator writes by operation and whether they matched anything
	Operations *prometheus.CounterVec

	// Sessions ended by reason: "logout", "expired"
	SessionsEnded *prometheus.CounterVec

	SessionsStarted prometheus.Counter
	ActiveSessions  prometheus.Gauge
}

// NewMetrics creates the session metrics and registers them with reg.
// A nil registerer leaves the metrics unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "privacyguard_simulator_operations_total",
			Help: "Total simulator operations by operation and outcome",
		}, []string{"operation", "applied"}),

		SessionsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "privacyguard_sessions_ended_total",
			Help: "Total sessions ended by reason",
		}, []string{"reason"}),

		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "privacyguard_sessions_started_total",
			Help: "Total sessions started",
		}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "privacyguard_sessions_active",
			Help: "Number of live sessions",
		}),
	}
}

// IncrementOperation records a simulator operation.
func (m *Metrics) IncrementOperation(op Operation, applied bool) {
	if m == nil {
		return
	}
	label := "false"
	if applied {
		label = "true"
	}
	m.Operations.WithLabelValues(string(op), label).Inc()
}

// SessionStarted records a new session.
func (m *Metrics) SessionStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

// SessionsRemoved records sessions ended for the given reason.
func (m *Metrics) SessionsRemoved(reason string, n int) {
	if m != nil && n > 0 {
		m.SessionsEnded.WithLabelValues(reason).Add(float64(n))
	}
}

// SetActive records the number of live sessions.
func (m *Metrics) SetActive(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}
