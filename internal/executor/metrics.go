package executor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vk/reconfgrid/internal/action"
)

// Metrics counts and times task executions.
type Metrics struct {
	executed *prometheus.CounterVec
	failed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the executor metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		executed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconfgrid",
			Name:      "tasks_executed_total",
			Help:      "Atomic actions executed, by kind.",
		}, []string{"kind"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconfgrid",
			Name:      "tasks_failed_total",
			Help:      "Atomic actions whose commands failed, by kind.",
		}, []string{"kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reconfgrid",
			Name:      "task_duration_seconds",
			Help:      "Duration of atomic action commands.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"kind"}),
	}
}

func (m *Metrics) observe(kind action.Kind, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	label := kind.String()
	m.executed.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	if err != nil {
		m.failed.WithLabelValues(label).Inc()
	}
}
