package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the compliance core.
type Metrics struct {
	Decisions          *prometheus.CounterVec
	ConsentTransitions *prometheus.CounterVec
	AuditEntries       prometheus.Counter
	AuditFailures      prometheus.Counter
	SecurityEvents     *prometheus.CounterVec
	Erasures           prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caregate_access_decisions_total",
			Help: "Access guard decisions by outcome and reason",
		}, []string{"outcome", "reason"}),
		ConsentTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caregate_consent_transitions_total",
			Help: "Consent ledger transitions by resulting state",
		}, []string{"state"}),
		AuditEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caregate_audit_entries_total",
			Help: "Entries appended to the data-access audit stream",
		}),
		AuditFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caregate_audit_append_failures_total",
			Help: "Failed audit appends; every failure forced a denial",
		}),
		SecurityEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caregate_security_events_total",
			Help: "Security events by severity",
		}, []string{"severity"}),
		Erasures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caregate_erasures_total",
			Help: "Completed right-to-be-forgotten erasures",
		}),
	}
}

func (m *Metrics) IncDecision(outcome, reason string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) IncConsentTransition(state string) {
	if m == nil {
		return
	}
	m.ConsentTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) IncAuditEntry() {
	if m == nil {
		return
	}
	m.AuditEntries.Inc()
}

func (m *Metrics) IncAuditFailure() {
	if m == nil {
		return
	}
	m.AuditFailures.Inc()
}

func (m *Metrics) IncSecurityEvent(severity string) {
	if m == nil {
		return
	}
	m.SecurityEvents.WithLabelValues(severity).Inc()
}

func (m *Metrics) IncErasure() {
	if m == nil {
		return
	}
	m.Erasures.Inc()
}
