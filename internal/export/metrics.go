package export

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks export pipeline activity.
type Metrics struct {
	started   *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers the export metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "export_runs_started_total",
			Help: "Number of export runs started, by format.",
		}, []string{"format"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "export_runs_completed_total",
			Help: "Number of export runs that completed successfully, by format.",
		}, []string{"format"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "export_runs_failed_total",
			Help: "Number of export runs that ended in failure, by format.",
		}, []string{"format"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "export_run_duration_seconds",
			Help:    "Wall-clock duration of export runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	reg.MustRegister(m.started, m.completed, m.failed, m.duration)
	return m
}

func (m *Metrics) runStarted(format string) {
	m.started.WithLabelValues(format).Inc()
}

func (m *Metrics) runCompleted(format string, elapsed time.Duration) {
	m.completed.WithLabelValues(format).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) runFailed(format string, elapsed time.Duration) {
	m.failed.WithLabelValues(format).Inc()
	m.duration.Observe(elapsed.Seconds())
}
