package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_generation_runs_total",
			Help: "Total number of weekly match generation runs",
		},
		[]string{"status"},
	)

	generationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_generation_duration_seconds",
			Help:    "Wall time of a weekly match generation run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	mutualPairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_mutual_pairs_total",
			Help: "Total number of mutual pairs committed",
		},
	)

	discardedPairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_discarded_pairs_total",
			Help: "Proposals dropped during reconciliation",
		},
		[]string{"reason"},
	)

	usersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_users_total",
			Help: "Respondents by outcome of candidate finding",
		},
		[]string{"outcome"},
	)

	recordWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_record_writes_total",
			Help: "Match record writes by status",
		},
		[]string{"status"},
	)

	matchDistribution = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matching_last_run_users",
			Help: "Users per final match count in the last completed run",
		},
		[]string{"matches"},
	)

	revealsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_reveals_total",
			Help: "Reveal requests by status",
		},
		[]string{"status"},
	)
)

var distributionLabels = [MaxMatches + 1]string{"0", "1", "2", "3"}

type metricsEmitter struct{}

// NewMetricsEmitter records generation events as Prometheus metrics.
func NewMetricsEmitter() Emitter {
	return metricsEmitter{}
}

func (metricsEmitter) Emit(e Event) {
	switch e.Kind {
	case EventPairCommitted:
		mutualPairsTotal.Inc()
	case EventPairDiscarded:
		discardedPairsTotal.WithLabelValues(e.Reason).Inc()
	case EventUserSkipped:
		usersTotal.WithLabelValues("skipped").Inc()
	case EventUserRelaxed:
		usersTotal.WithLabelValues("relaxed").Inc()
	case EventUserUnmatched:
		usersTotal.WithLabelValues("unmatched").Inc()
	case EventRecordWritten:
		recordWritesTotal.WithLabelValues("ok").Inc()
	case EventRecordCleared:
		recordWritesTotal.WithLabelValues("cleared").Inc()
	case EventWriteFailed:
		recordWritesTotal.WithLabelValues("error").Inc()
	case EventRunFailed:
		generationRunsTotal.WithLabelValues("failed").Inc()
	case EventRunCompleted:
		generationRunsTotal.WithLabelValues("completed").Inc()
		if r := e.Report; r != nil {
			generationDuration.Observe(r.Duration.Seconds())
			for i, n := range r.Distribution {
				matchDistribution.WithLabelValues(distributionLabels[i]).Set(float64(n))
			}
		}
	}
}

// RecordReveal counts a reveal request outcome.
func RecordReveal(status string) {
	revealsTotal.WithLabelValues(status).Inc()
}
