package summary

import (
	"math"
	"time"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
)

type Clock func() time.Time

type Aggregator struct {
	now Clock
}

func NewAggregator(now Clock) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now}
}

// Summarize builds the headline numbers of a run. Rates are simple means over
// segments, not weighted by transactions; impact covers emitted insights only.
func (a *Aggregator) Summarize(anomalies []domain.AnomalyRecord, insights []domain.InsightRecord) domain.SummaryRecord {
	var baselineSum, currentSum float64
	flagged := 0
	for _, r := range anomalies {
		baselineSum += r.BaselineRate
		currentSum += r.CurrentRate
		if r.IsAnomaly {
			flagged++
		}
	}

	var baseline, current float64
	if len(anomalies) > 0 {
		baseline = baselineSum / float64(len(anomalies))
		current = currentSum / float64(len(anomalies))
	}

	summary := domain.SummaryRecord{
		OverallBaselineRate: round(baseline, 4),
		OverallCurrentRate:  round(current, 4),
		TotalRateChange:     round(current-baseline, 4),
		SegmentsAnalyzed:    len(anomalies),
		AnomaliesDetected:   flagged,
		AnalysisTimestamp:   a.now().UTC(),
	}

	var impact float64
	for _, in := range insights {
		impact += in.EstimatedRevenueImpactUSD
		switch in.Severity {
		case domain.SeverityCritical:
			summary.CriticalInsights++
		case domain.SeverityHigh:
			summary.HighInsights++
		case domain.SeverityMedium:
			summary.MediumInsights++
		case domain.SeverityLow:
			summary.LowInsights++
		}
	}
	summary.TotalMonthlyRevenueImpactUSD = round(impact, 2)

	return summary
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
