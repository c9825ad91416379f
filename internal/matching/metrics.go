package matching

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibes_matches_total",
			Help: "Persisted matches by outcome",
		},
		[]string{"outcome"},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vibes_compatibility_scores",
			Help:    "Distribution of compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	candidateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibes_candidate_failures_total",
			Help: "Candidates skipped during a scoring run",
		},
		[]string{"reason"},
	)

	scoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibes_scoring_duration_seconds",
			Help:    "Wall time of a full scoring run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	notificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibes_match_notification_failures_total",
			Help: "Match notifications that could not be delivered",
		},
	)
)

// RecordMatch counts a persisted pair as "created" or "existing".
func RecordMatch(outcome string) {
	matchesTotal.WithLabelValues(outcome).Inc()
}

func RecordCompatibilityScore(score float64) {
	compatibilityScores.Observe(score)
}

func RecordCandidateFailure(reason string) {
	candidateFailures.WithLabelValues(reason).Inc()
}

func RecordScoringDuration(mode string, d time.Duration) {
	scoringDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func RecordNotificationFailure() {
	notificationFailures.Inc()
}
