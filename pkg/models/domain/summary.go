package domain

import "time"

// SummaryRecord carries the headline numbers of a run.
type SummaryRecord struct {
	OverallBaselineRate          float64
	OverallCurrentRate           float64
	TotalRateChange              float64
	TotalMonthlyRevenueImpactUSD float64
	SegmentsAnalyzed             int
	AnomaliesDetected            int
	CriticalInsights             int
	HighInsights                 int
	MediumInsights               int
	LowInsights                  int
	AnalysisTimestamp            time.Time
}

// RunResult bundles the three datasets produced by one analysis run.
type RunResult struct {
	RunID     string
	Source    string
	Anomalies []AnomalyRecord
	Insights  []InsightRecord
	Summary   SummaryRecord
}
