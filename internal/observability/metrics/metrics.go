// Package metrics exposes Prometheus instrumentation for the coach.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collaborator kinds.
const (
	KindEmployeeReply = "employee_reply"
	KindCoaching      = "coaching"
	KindScenarioFill  = "scenario_fill"
)

// Metrics holds counters/histograms for collaborator calls, the session
// store and practice state transitions. A nil *Metrics is a no-op.
type Metrics struct {
	collaboratorCalls   *prometheus.CounterVec
	collaboratorLatency *prometheus.HistogramVec
	storeOps            *prometheus.CounterVec
	transitions         *prometheus.CounterVec
}

// New registers the collectors on reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		collaboratorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Subsystem: "collaborator",
			Name:      "calls_total",
			Help:      "Language-model collaborator calls by kind and outcome",
		}, []string{"kind", "status"}),
		collaboratorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coach",
			Subsystem: "collaborator",
			Name:      "latency_seconds",
			Help:      "Latency of language-model collaborator calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"kind"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Session store operations by kind and outcome",
		}, []string{"op", "status"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Subsystem: "practice",
			Name:      "transitions_total",
			Help:      "Practice session state transitions",
		}, []string{"from", "to"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.collaboratorCalls, m.collaboratorLatency, m.storeOps, m.transitions)
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveCollaborator records one collaborator call.
func (m *Metrics) ObserveCollaborator(kind string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.collaboratorCalls.WithLabelValues(kind, status(err)).Inc()
	m.collaboratorLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveStore records one store operation.
func (m *Metrics) ObserveStore(op string, err error) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(op, status(err)).Inc()
}

// ObserveTransition records a practice state change.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}
