package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for session and account operations.
type Metrics struct {
	PrincipalsCreated prometheus.Counter
	SessionsCommitted prometheus.Counter
	SessionsRevoked   prometheus.Counter
	DuplicateLogins   prometheus.Counter
	StaleSessions     prometheus.Counter
	AuthFailures      *prometheus.CounterVec
	SessionsPurged    prometheus.Counter
	DroppedFields     *prometheus.CounterVec
}

// New registers the auth collectors with reg. Passing prometheus.NewRegistry()
// keeps tests isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PrincipalsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "grace_principals_created_total",
			Help: "Total number of principals created",
		}),
		SessionsCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "grace_sessions_committed_total",
			Help: "Total number of sessions issued on login",
		}),
		SessionsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "grace_sessions_revoked_total",
			Help: "Total number of sessions removed on logout",
		}),
		DuplicateLogins: factory.NewCounter(prometheus.CounterOpts{
			Name: "grace_duplicate_logins_total",
			Help: "Login attempts rejected because the caller held a live session",
		}),
		StaleSessions: factory.NewCounter(prometheus.CounterOpts{
			Name: "grace_stale_sessions_cleared_total",
			Help: "Expired sessions cleared at the start of a login attempt",
		}),
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grace_auth_failures_total",
			Help: "Total number of rejected authentication attempts by strategy",
		}, []string{"strategy"}),
		SessionsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "grace_sessions_purged_total",
			Help: "Sessions deleted by the expired-session sweep",
		}),
		DroppedFields: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grace_update_fields_dropped_total",
			Help: "Unparseable role or status values dropped from administrator updates",
		}, []string{"field"}),
	}
}

func (m *Metrics) IncrementPrincipalsCreated() { m.PrincipalsCreated.Inc() }
func (m *Metrics) IncrementSessionsCommitted() { m.SessionsCommitted.Inc() }
func (m *Metrics) IncrementSessionsRevoked()   { m.SessionsRevoked.Inc() }
func (m *Metrics) IncrementDuplicateLogins()   { m.DuplicateLogins.Inc() }
func (m *Metrics) IncrementStaleSessions()     { m.StaleSessions.Inc() }

func (m *Metrics) IncrementAuthFailures(strategy string) {
	m.AuthFailures.WithLabelValues(strategy).Inc()
}

func (m *Metrics) AddSessionsPurged(n int) {
	m.SessionsPurged.Add(float64(n))
}

func (m *Metrics) IncrementDroppedField(field string) {
	m.DroppedFields.WithLabelValues(field).Inc()
}
