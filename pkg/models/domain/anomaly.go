package domain

// AnomalyRecord is the detector's verdict for one baseline segment.
type AnomalyRecord struct {
	SegmentKey                string
	SegmentType               SegmentType
	BaselineRate              float64
	CurrentRate               float64
	RateChange                float64 // current - baseline
	ZScore                    float64 // relative to every segment in the same run
	PValue                    float64
	AffectedTransactions      int64 // current period total, 0 if the segment vanished
	AvgTicketUSD              float64
	EstimatedRevenueImpactUSD float64 // monthly equivalent
	IsAnomaly                 bool
}
