package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runs      *prometheus.CounterVec
	alerts    *prometheus.CounterVec
	insights  prometheus.Counter
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	lastPrice prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brondby_analysis_runs_total",
				Help: "Analysis runs by trigger (scheduled, manual)",
			},
			[]string{"trigger"},
		),
		alerts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brondby_alerts_fired_total",
				Help: "Fired alerts by type",
			},
			[]string{"type"},
		),
		insights: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "brondby_insights_generated_total",
				Help: "Total generated insights",
			},
		),
		errors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brondby_errors_total",
				Help: "Errors by stage",
			},
			[]string{"stage"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brondby_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		lastPrice: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "brondby_last_price",
				Help: "Most recent observed price",
			},
		),
	}
}

// RecordAnalysisRun counts one analysis pass by trigger.
func (r *Recorder) RecordAnalysisRun(trigger string) {
	r.runs.WithLabelValues(trigger).Inc()
}

// RecordAlert counts a fired alert by type.
func (r *Recorder) RecordAlert(alertType string) {
	r.alerts.WithLabelValues(alertType).Inc()
}

// RecordInsights counts generated insights.
func (r *Recorder) RecordInsights(count int) {
	r.insights.Add(float64(count))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(stage string) {
	r.errors.WithLabelValues(stage).Inc()
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordLastPrice records the most recent price.
func (r *Recorder) RecordLastPrice(price float64) {
	r.lastPrice.Set(price)
}
