package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bibbank/riskwatch/internal/domain/model"
)

const namespace = "riskwatch"

// PrometheusRecorder implements port.MetricsRecorder with Prometheus collectors.
type PrometheusRecorder struct {
	scored      *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	portfolios  *prometheus.CounterVec
	duration    prometheus.Histogram
	safePercent prometheus.Histogram
}

// NewPrometheusRecorder creates the collectors and registers them with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		scored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_scored_total",
			Help:      "Transactions scored, by risk level.",
		}, []string{"level"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_rejected_total",
			Help:      "Transactions rejected by validation, by offending field.",
		}, []string{"field"}),
		portfolios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portfolios_assessed_total",
			Help:      "Portfolio assessments, by whether the alert was raised.",
		}, []string{"alert"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_duration_seconds",
			Help:      "Time spent scoring and summarizing one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		safePercent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "portfolio_safe_percentage",
			Help:      "Safe percentage of non-empty portfolios.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}

	reg.MustRegister(r.scored, r.rejected, r.portfolios, r.duration, r.safePercent)
	return r
}

// ObserveAssessment records one batch outcome.
func (r *PrometheusRecorder) ObserveAssessment(summary model.RiskSummary, rejected []model.RejectedTransaction, duration time.Duration) {
	r.scored.WithLabelValues("HIGH").Add(float64(summary.HighCount))
	r.scored.WithLabelValues("MEDIUM").Add(float64(summary.MediumCount))
	r.scored.WithLabelValues("LOW").Add(float64(summary.LowCount()))

	for _, rj := range rejected {
		field := "unknown"
		if rj.Err != nil {
			field = rj.Err.Field
		}
		r.rejected.WithLabelValues(field).Inc()
	}

	alert := "false"
	if summary.Alert {
		alert = "true"
	}
	r.portfolios.WithLabelValues(alert).Inc()

	if summary.SafePercentage != nil {
		r.safePercent.Observe(float64(*summary.SafePercentage))
	}
	r.duration.Observe(duration.Seconds())
}
