package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	instanceActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haas_instance_actions_total",
			Help: "Per-instance action outcomes",
		},
		[]string{"action", "status"},
	)

	instanceActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "haas_instance_action_duration_seconds",
			Help:    "Time spent applying one action to one instance",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"action"},
	)

	proposalWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haas_proposal_warnings_total",
			Help: "Instances dropped from promote or demote proposals",
		},
		[]string{"action"},
	)
)

// ObserveAction records the outcome of one instance action.
func ObserveAction(action, status string, elapsed time.Duration) {
	instanceActionsTotal.WithLabelValues(action, status).Inc()
	instanceActionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// ObserveProposalWarnings counts instances rejected in a proposal phase.
func ObserveProposalWarnings(action string, n int) {
	if n > 0 {
		proposalWarningsTotal.WithLabelValues(action).Add(float64(n))
	}
}
