package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics records outcomes of workflow transitions.
type DecisionMetrics struct {
	duration          *prometheus.HistogramVec
	decisions         *prometheus.CounterVec
	limitShortfalls   prometheus.Counter
	requestsSubmitted prometheus.Counter
}

// NewDecisionMetrics registers the workflow metrics on the provided registerer.
func NewDecisionMetrics(reg prometheus.Registerer) *DecisionMetrics {
	if reg == nil {
		return &DecisionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transition_duration_seconds",
		Help:    "Duration of request lifecycle transitions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "decisions_total",
		Help: "Decisions recorded per stage and outcome.",
	}, []string{"stage", "outcome"})
	limitShortfalls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "limit_shortfalls_total",
		Help: "Approvals refused because the distributor limit was insufficient.",
	})
	requestsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "requests_submitted_total",
		Help: "Incentive requests accepted for dealer review.",
	})
	reg.MustRegister(duration, decisions, limitShortfalls, requestsSubmitted)
	return &DecisionMetrics{
		duration:          duration,
		decisions:         decisions,
		limitShortfalls:   limitShortfalls,
		requestsSubmitted: requestsSubmitted,
	}
}

// ObserveDuration records how long the named transition took.
func (m *DecisionMetrics) ObserveDuration(stage string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

// IncDecision increments the counter for the given stage and outcome.
func (m *DecisionMetrics) IncDecision(stage, outcome string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(stage), normalizeLabel(outcome)).Inc()
}

// IncLimitShortfall counts a refused approval due to insufficient limit.
func (m *DecisionMetrics) IncLimitShortfall() {
	if m == nil || m.limitShortfalls == nil {
		return
	}
	m.limitShortfalls.Inc()
}

// IncSubmitted counts an accepted submission.
func (m *DecisionMetrics) IncSubmitted() {
	if m == nil || m.requestsSubmitted == nil {
		return
	}
	m.requestsSubmitted.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
