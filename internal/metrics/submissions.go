package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumecheck",
			Subsystem: "pipeline",
			Name:      "submissions_total",
			Help:      "Submission pipeline runs by terminal phase.",
		},
		[]string{"phase"},
	)

	submissionsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "resumecheck",
			Subsystem: "pipeline",
			Name:      "submissions_in_progress",
			Help:      "Submission pipeline runs currently executing.",
		},
	)
)

// SubmissionStarted marks the start of one pipeline run.
func SubmissionStarted() {
	submissionsInProgress.Inc()
}

// SubmissionFinished records the terminal phase of one pipeline run.
func SubmissionFinished(phase string) {
	submissionsInProgress.Dec()
	submissionsTotal.WithLabelValues(phase).Inc()
}
