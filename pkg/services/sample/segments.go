// Package sample provides a fixed set of segment statistics that reproduces
// three degradation patterns: an issuer collapse in Mexico, high-value amount
// buckets losing approvals and an evening-hours dip, on top of a broad
// regional decline.
package sample

import "github.com/de-tools/approval-atlas/pkg/models/domain"

type shape struct {
	key          string
	baselineRate float64
	currentRate  float64
	baselineTxns int64
	currentTxns  int64
	avgTicketUSD float64
}

var issuers = []shape{
	{"MX|Mastercard|Debit|BBVA", 0.85, 0.44, 1180, 1200, 85.0},
	{"MX|Visa|Credit|Banorte", 0.82, 0.74, 650, 660, 55.0},
	{"MX|Visa|Credit|Santander MX", 0.81, 0.73, 420, 430, 52.0},
	{"MX|Mastercard|Credit|Citibanamex", 0.80, 0.72, 380, 390, 48.0},
	{"MX|Visa|Debit|HSBC MX", 0.79, 0.71, 310, 315, 34.0},
	{"BR|Visa|Credit|Itau", 0.83, 0.69, 900, 910, 45.0},
	{"BR|Mastercard|Debit|Bradesco", 0.82, 0.68, 750, 760, 36.0},
	{"BR|Visa|Credit|Nubank", 0.85, 0.71, 680, 690, 42.0},
	{"BR|Mastercard|Credit|Santander BR", 0.81, 0.67, 520, 530, 50.0},
	{"BR|Visa|Debit|Caixa", 0.80, 0.66, 480, 490, 30.0},
	{"CO|Visa|Credit|Bancolombia", 0.82, 0.68, 400, 410, 40.0},
	{"CO|Mastercard|Debit|Davivienda", 0.80, 0.66, 300, 305, 32.0},
	{"CO|Visa|Credit|Banco de Bogota", 0.79, 0.65, 250, 255, 38.0},
	{"CO|Mastercard|Credit|BBVA CO", 0.78, 0.64, 220, 225, 44.0},
}

var amountBuckets = []shape{
	{"$10-50", 0.84, 0.72, 1200, 1220, 28.0},
	{"$50-100", 0.83, 0.69, 980, 990, 72.0},
	{"$100-200", 0.81, 0.61, 620, 630, 145.0},
	{"$200-350", 0.79, 0.54, 380, 385, 265.0},
	{"$350-500", 0.77, 0.50, 180, 182, 415.0},
}

var hourBuckets = []shape{
	{"morning_6_12", 0.84, 0.71, 800, 810, 45.0},
	{"afternoon_12_17", 0.83, 0.70, 950, 960, 47.0},
	{"evening_17_20", 0.82, 0.55, 700, 710, 50.0},
	{"night_20_24", 0.80, 0.63, 600, 605, 43.0},
	{"late_night_0_6", 0.78, 0.64, 200, 202, 38.0},
}

var countries = []shape{
	{"MX", 0.82, 0.63, 2100, 2130, 45.0},
	{"BR", 0.83, 0.66, 3400, 3450, 40.0},
	{"CO", 0.80, 0.65, 1200, 1210, 38.0},
}

// Segments returns baseline and current rows for every sample segment.
func Segments() []domain.SegmentPeriodStat {
	var rows []domain.SegmentPeriodStat
	rows = appendRows(rows, domain.SegmentTypeComposite, issuers)
	rows = appendRows(rows, domain.SegmentTypeAmountBucket, amountBuckets)
	rows = appendRows(rows, domain.SegmentTypeHourBucket, hourBuckets)
	rows = appendRows(rows, domain.SegmentTypeCountry, countries)
	return rows
}

func appendRows(rows []domain.SegmentPeriodStat, segmentType domain.SegmentType, shapes []shape) []domain.SegmentPeriodStat {
	for _, s := range shapes {
		rows = append(rows,
			row(s.key, segmentType, domain.PeriodBaseline, s.baselineTxns, s.baselineRate, s.avgTicketUSD),
			row(s.key, segmentType, domain.PeriodCurrent, s.currentTxns, s.currentRate, s.avgTicketUSD),
		)
	}
	return rows
}

func row(key string, segmentType domain.SegmentType, period domain.Period, total int64, rate, avgTicket float64) domain.SegmentPeriodStat {
	return domain.SegmentPeriodStat{
		SegmentKey:           key,
		SegmentType:          segmentType,
		Period:               period,
		TotalTransactions:    total,
		ApprovedTransactions: int64(float64(total) * rate),
		TotalAmountUSD:       float64(total) * avgTicket,
	}
}
