package analysis

import (
	"time"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics describes the outcome of analysis runs for Prometheus.
type Metrics struct {
	runs             *prometheus.CounterVec
	duration         prometheus.Histogram
	segments         prometheus.Gauge
	anomalies        prometheus.Gauge
	insights         *prometheus.GaugeVec
	revenueImpactUSD prometheus.Gauge
}

// NewMetrics registers the analysis collectors with reg. A nil registerer
// yields unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "approval_atlas_runs_total",
				Help: "Analysis runs by outcome",
			},
			[]string{"source", "outcome"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "approval_atlas_run_duration_seconds",
				Help:    "Wall time of a complete analysis run",
				Buckets: prometheus.DefBuckets,
			},
		),
		segments: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "approval_atlas_segments_analyzed",
				Help: "Segments compared in the last successful run",
			},
		),
		anomalies: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "approval_atlas_anomalies_detected",
				Help: "Segments flagged as anomalous in the last successful run",
			},
		),
		insights: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "approval_atlas_insights",
				Help: "Insights of the last successful run by severity",
			},
			[]string{"severity"},
		),
		revenueImpactUSD: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "approval_atlas_monthly_revenue_impact_usd",
				Help: "Estimated monthly revenue impact across the reported insights",
			},
		),
	}
}

func (m *Metrics) observeFailure(source string, elapsed time.Duration) {
	m.runs.WithLabelValues(source, outcomeFailure).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeSuccess(result *domain.RunResult, elapsed time.Duration) {
	m.runs.WithLabelValues(result.Source, outcomeSuccess).Inc()
	m.duration.Observe(elapsed.Seconds())

	s := result.Summary
	m.segments.Set(float64(s.SegmentsAnalyzed))
	m.anomalies.Set(float64(s.AnomaliesDetected))
	m.revenueImpactUSD.Set(s.TotalMonthlyRevenueImpactUSD)
	m.insights.WithLabelValues(string(domain.SeverityCritical)).Set(float64(s.CriticalInsights))
	m.insights.WithLabelValues(string(domain.SeverityHigh)).Set(float64(s.HighInsights))
	m.insights.WithLabelValues(string(domain.SeverityMedium)).Set(float64(s.MediumInsights))
	m.insights.WithLabelValues(string(domain.SeverityLow)).Set(float64(s.LowInsights))
}
