package metrics

import "github.com/prometheus/client_golang/prometheus"

// SweepMetrics tracks reconciliation sweeps and the polls they touch.
type SweepMetrics struct {
	SweepsTotal    *prometheus.CounterVec
	SweepDuration  *prometheus.HistogramVec
	PollsProcessed *prometheus.CounterVec
	PollsFinalized *prometheus.CounterVec
	OpenPolls      prometheus.Gauge
}

// NewSweepMetrics creates and registers sweep metrics on the given registry.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	m := &SweepMetrics{
		SweepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total number of sweeps, by trigger.",
		}, []string{"trigger"}),
		SweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Duration of a sweep in seconds, by trigger.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"trigger"}),
		PollsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "polls_processed_total",
			Help:      "Total number of per-poll reconciliations, by result.",
		}, []string{"result"}),
		PollsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "polls_finalized_total",
			Help:      "Total number of polls closed by a sweep, by reason.",
		}, []string{"reason"}),
		OpenPolls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "open_polls",
			Help:      "Number of open polls seen by the last frequent sweep.",
		}),
	}

	reg.MustRegister(m.SweepsTotal, m.SweepDuration, m.PollsProcessed, m.PollsFinalized, m.OpenPolls)
	return m
}
