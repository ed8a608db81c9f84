package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks dispute engine operation counts.
type Metrics struct {
	created  prometheus.Counter
	evidence prometheus.Counter
	resolved prometheus.Counter
	released prometheus.Counter
}

// New creates and registers all engine metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "arbiterflow_disputes_created_total",
			Help: "Total number of disputes opened",
		}),
		evidence: promauto.NewCounter(prometheus.CounterOpts{
			Name: "arbiterflow_evidence_submitted_total",
			Help: "Total number of evidence items recorded",
		}),
		resolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "arbiterflow_disputes_resolved_total",
			Help: "Total number of disputes resolved",
		}),
		released: promauto.NewCounter(prometheus.CounterOpts{
			Name: "arbiterflow_escrow_released_total",
			Help: "Total value paid out of escrow to winners",
		}),
	}
}

// DisputeCreated records a successful dispute creation.
func (m *Metrics) DisputeCreated() {
	m.created.Inc()
}

// EvidenceSubmitted records a successful evidence submission.
func (m *Metrics) EvidenceSubmitted() {
	m.evidence.Inc()
}

// DisputeResolved records a successful resolution and the value its escrow
// payout moved.
func (m *Metrics) DisputeResolved(released int64) {
	m.resolved.Inc()
	m.released.Add(float64(released))
}
