package api

import "time"

type Anomaly struct {
	SegmentKey                string  `json:"segment_key"`
	SegmentType               string  `json:"segment_type"`
	BaselineRate              float64 `json:"baseline_rate"`
	CurrentRate               float64 `json:"current_rate"`
	RateChange                float64 `json:"rate_change"`
	ZScore                    float64 `json:"z_score"`
	PValue                    float64 `json:"p_value"`
	IsAnomaly                 bool    `json:"is_anomaly"`
	AffectedTransactions      int64   `json:"affected_transactions"`
	AvgTicketUSD              float64 `json:"avg_ticket_usd"`
	EstimatedRevenueImpactUSD float64 `json:"estimated_revenue_impact_usd"`
}

type Insight struct {
	Rank                      int     `json:"rank"`
	InsightID                 string  `json:"insight_id"`
	Title                     string  `json:"title"`
	Description               string  `json:"description"`
	SegmentKey                string  `json:"segment_key"`
	SegmentType               string  `json:"segment_type"`
	Category                  string  `json:"category"`
	BaselineRate              float64 `json:"baseline_rate"`
	CurrentRate               float64 `json:"current_rate"`
	RateChange                float64 `json:"rate_change"`
	ZScore                    float64 `json:"z_score"`
	PValue                    float64 `json:"p_value"`
	AffectedTransactions      int64   `json:"affected_transactions"`
	EstimatedRevenueImpactUSD float64 `json:"estimated_revenue_impact_usd"`
	Score                     float64 `json:"score"`
	Severity                  string  `json:"severity"`
}

type Summary struct {
	OverallBaselineRate          float64   `json:"overall_baseline_rate"`
	OverallCurrentRate           float64   `json:"overall_current_rate"`
	TotalRateChange              float64   `json:"total_rate_change"`
	TotalMonthlyRevenueImpactUSD float64   `json:"total_monthly_revenue_impact_usd"`
	SegmentsAnalyzed             int       `json:"segments_analyzed"`
	AnomaliesDetected            int       `json:"anomalies_detected"`
	CriticalInsights             int       `json:"critical_insights"`
	HighInsights                 int       `json:"high_insights"`
	MediumInsights               int       `json:"medium_insights"`
	LowInsights                  int       `json:"low_insights"`
	AnalysisTimestamp            time.Time `json:"analysis_timestamp"`
}

type Run struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	Summary   Summary   `json:"summary"`
	Insights  []Insight `json:"insights"`
	Anomalies []Anomaly `json:"anomalies"`
}

type Error struct {
	Error string `json:"error"`
}

// SegmentStat counts are pointers so a row that omits them can be told
// apart from a row reporting zero.
type SegmentStat struct {
	SegmentKey           string   `json:"segment_key"`
	SegmentType          string   `json:"segment_type"`
	Period               string   `json:"period"`
	TotalTransactions    *int64   `json:"total_transactions"`
	ApprovedTransactions *int64   `json:"approved_transactions"`
	TotalAmountUSD       *float64 `json:"total_amount_usd"`
}

// RunRequest optionally carries the rows to analyze; without rows the
// server's configured source is used.
type RunRequest struct {
	Segments []SegmentStat `json:"segments,omitempty"`
}
