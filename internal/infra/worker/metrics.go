package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fixturecast/internal/pkg/config"
)

// JanitorMetrics provides Prometheus metrics for the dead-letter janitor.
// It embeds ConfigMetrics for configuration fallback monitoring and adds
// sweep execution tracking.
type JanitorMetrics struct {
	*config.ConfigMetrics

	// SweepRunsTotal counts sweep runs, labelled success or failure.
	SweepRunsTotal *prometheus.CounterVec

	// SweepDurationSeconds measures sweep execution time.
	SweepDurationSeconds prometheus.Histogram

	// SweepEntriesPrunedTotal counts dead-letter entries removed by sweeps.
	SweepEntriesPrunedTotal prometheus.Counter

	// SweepLastSuccessTimestamp records the last successful sweep time.
	SweepLastSuccessTimestamp prometheus.Gauge
}

// NewJanitorMetrics creates janitor metrics. Registration happens via
// promauto at creation time.
func NewJanitorMetrics() *JanitorMetrics {
	return &JanitorMetrics{
		ConfigMetrics: config.NewConfigMetrics("janitor"),

		SweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "janitor_sweep_runs_total",
			Help: "Total number of retention sweep runs by status (success/failure)",
		}, []string{"status"}),

		SweepDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "janitor_sweep_duration_seconds",
			Help:    "Duration of retention sweep execution in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300},
		}),

		SweepEntriesPrunedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "janitor_sweep_entries_pruned_total",
			Help: "Total number of dead-letter entries removed by retention sweeps",
		}),

		SweepLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "janitor_sweep_last_success_timestamp",
			Help: "Unix timestamp of the last successful retention sweep",
		}),
	}
}

// RecordSweepRun increments the sweep run counter for the given status.
func (m *JanitorMetrics) RecordSweepRun(status string) {
	m.SweepRunsTotal.WithLabelValues(status).Inc()
}

// RecordSweepDuration observes the duration of a sweep in seconds.
func (m *JanitorMetrics) RecordSweepDuration(seconds float64) {
	m.SweepDurationSeconds.Observe(seconds)
}

// RecordEntriesPruned adds the number of entries removed by a sweep.
func (m *JanitorMetrics) RecordEntriesPruned(count int64) {
	m.SweepEntriesPrunedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful sweep.
func (m *JanitorMetrics) RecordLastSuccess() {
	m.SweepLastSuccessTimestamp.SetToCurrentTime()
}
