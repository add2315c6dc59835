package domain

type Period string

const (
	PeriodBaseline Period = "baseline"
	PeriodCurrent  Period = "current"
)

// SegmentType names the dimensional grouping that produced a segment key.
type SegmentType string

const (
	SegmentTypeComposite          SegmentType = "composite"
	SegmentTypeIssuerBrandType    SegmentType = "issuer_brand_type"
	SegmentTypeCountryBrandType   SegmentType = "country_brand_type"
	SegmentTypeCountryIssuerBrand SegmentType = "country_issuer_brand"
	SegmentTypeCountryIssuer      SegmentType = "country_issuer"
	SegmentTypeIssuerBrand        SegmentType = "issuer_brand"
	SegmentTypeCountryBrand       SegmentType = "country_brand"
	SegmentTypeIssuer             SegmentType = "issuer"
	SegmentTypeCountryCardType    SegmentType = "country_card_type"
	SegmentTypeCountry            SegmentType = "country"
	SegmentTypeCardBrand          SegmentType = "card_brand"
	SegmentTypeCardType           SegmentType = "card_type"
	SegmentTypeAmountBucket       SegmentType = "amount_bucket"
	SegmentTypeHourBucket         SegmentType = "hour_bucket"
	SegmentTypeTimeWeekly         SegmentType = "time_weekly"
)

// SegmentPeriodStat holds the aggregated counts of one segment for one period.
type SegmentPeriodStat struct {
	SegmentKey           string
	SegmentType          SegmentType
	Period               Period
	TotalTransactions    int64
	ApprovedTransactions int64
	TotalAmountUSD       float64
}

// ApprovalRate returns approved/total, or 0 when the segment saw no traffic.
func (s SegmentPeriodStat) ApprovalRate() float64 {
	if s.TotalTransactions == 0 {
		return 0
	}
	return float64(s.ApprovedTransactions) / float64(s.TotalTransactions)
}
