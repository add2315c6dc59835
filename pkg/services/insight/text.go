package insight

import (
	"fmt"
	"math"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func buildTitle(r domain.AnomalyRecord) string {
	label := Label(r.SegmentKey)
	pp := math.Abs(r.RateChange) * 100
	if r.RateChange == 0 {
		return fmt.Sprintf("%s Approval Rate Unchanged", label)
	}
	if r.RateChange < 0 {
		return fmt.Sprintf("%s Approval Rate Collapsed (%.0fpp Drop)", label, pp)
	}
	return fmt.Sprintf("%s Approval Rate Anomaly (%.0fpp Change)", label, pp)
}

func buildDescription(r domain.AnomalyRecord, weeksPerPeriod float64) string {
	var movement string
	switch {
	case r.RateChange == 0:
		movement = fmt.Sprintf("held at %.1f%% with no shift,", r.BaselineRate*100)
	case r.RateChange > 0:
		movement = fmt.Sprintf("rose from %.1f%% to %.1f%%, a %.1fpp shift", r.BaselineRate*100, r.CurrentRate*100, r.RateChange*100)
	default:
		movement = fmt.Sprintf("declined from %.1f%% to %.1f%%, a %.1fpp shift", r.BaselineRate*100, r.CurrentRate*100, -r.RateChange*100)
	}

	return fmt.Sprintf(
		"%s's approval rate %s affecting %s transactions per %g-week period. "+
			"Estimated monthly revenue impact: $%s. Statistical significance: p=%.4f, z=%.2f.",
		Label(r.SegmentKey),
		movement,
		printer.Sprintf("%d", r.AffectedTransactions),
		weeksPerPeriod,
		printer.Sprintf("%.0f", r.EstimatedRevenueImpactUSD),
		r.PValue,
		r.ZScore,
	)
}
