package store

import "time"

type AnalysisRun struct {
	RunID                        string
	Source                       string
	CreatedAt                    time.Time
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

type Anomaly struct {
	RunID                     string
	SegmentKey                string
	SegmentType               string
	BaselineRate              float64
	CurrentRate               float64
	RateChange                float64
	ZScore                    float64
	PValue                    float64
	AffectedTransactions      int64
	AvgTicketUSD              float64
	EstimatedRevenueImpactUSD float64
	IsAnomaly                 bool
}

type Insight struct {
	RunID                     string
	Rank                      int
	InsightID                 string
	Title                     string
	Description               string
	SegmentKey                string
	SegmentType               string
	Category                  string
	BaselineRate              float64
	CurrentRate               float64
	RateChange                float64
	ZScore                    float64
	PValue                    float64
	AffectedTransactions      int64
	EstimatedRevenueImpactUSD float64
	Score                     float64
	Severity                  string
}
