package domain

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity from the most to the least urgent.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Category is the coarse root-cause family a segment type belongs to.
type Category string

const (
	CategoryIssuer     Category = "issuer"
	CategoryAmount     Category = "amount"
	CategoryTime       Category = "time"
	CategoryGeography  Category = "geography"
	CategoryInstrument Category = "instrument"
	CategoryOther      Category = "other"
)

type InsightRecord struct {
	Rank                      int
	InsightID                 string
	Title                     string
	Description               string
	SegmentKey                string
	SegmentType               SegmentType
	Category                  Category
	BaselineRate              float64
	CurrentRate               float64
	RateChange                float64
	ZScore                    float64
	PValue                    float64
	AffectedTransactions      int64
	EstimatedRevenueImpactUSD float64
	Score                     float64
	Severity                  Severity
}
