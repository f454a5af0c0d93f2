// Package metrics holds the e-sign domain counters exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sign outcomes.
const (
	OutcomeSigned       = "signed"
	OutcomeUnauthorized = "unauthorized"
	OutcomeQuota        = "quota_exceeded"
	OutcomeUpstream     = "upstream_error"
	OutcomeInvalid      = "invalid"
)

// Metrics groups the domain counters. A nil *Metrics is valid and records
// nothing, so services can run without a registry in tests.
type Metrics struct {
	signatures *prometheus.CounterVec
	placements prometheus.Counter
	shares     prometheus.Counter
	signs      *prometheus.CounterVec
	reminders  prometheus.Counter
	expired    prometheus.Counter
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		signatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esign_signatures_authored_total",
			Help: "Signature templates authored, by type.",
		}, []string{"type"}),
		placements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esign_placements_total",
			Help: "Placements added to documents.",
		}),
		shares: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esign_shares_total",
			Help: "Documents shared for signing.",
		}),
		signs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esign_sign_requests_total",
			Help: "Sign submissions, by outcome.",
		}, []string{"outcome"}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esign_reminders_sent_total",
			Help: "Reminder emails sent to pending recipients.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esign_members_expired_total",
			Help: "Pending recipients expired by the scheduler.",
		}),
	}
	for _, c := range []prometheus.Collector{m.signatures, m.placements, m.shares, m.signs, m.reminders, m.expired} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) SignatureAuthored(sigType string) {
	if m == nil {
		return
	}
	m.signatures.WithLabelValues(sigType).Inc()
}

func (m *Metrics) PlacementAdded() {
	if m == nil {
		return
	}
	m.placements.Inc()
}

func (m *Metrics) Shared() {
	if m == nil {
		return
	}
	m.shares.Inc()
}

func (m *Metrics) SignRequest(outcome string) {
	if m == nil {
		return
	}
	m.signs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ReminderSent() {
	if m == nil {
		return
	}
	m.reminders.Inc()
}

func (m *Metrics) MembersExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}
