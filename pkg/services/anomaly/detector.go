package anomaly

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoBaseline   = errors.New("no baseline data available")
	ErrInvalidInput = errors.New("invalid segment statistics")
)

const unknownTypePriority = 99

// typePriority orders segment types from the most specific to the broadest.
// When several groupings produce the same key the lowest value wins.
var typePriority = map[domain.SegmentType]int{
	domain.SegmentTypeComposite:          0,
	domain.SegmentTypeIssuerBrandType:    1,
	domain.SegmentTypeCountryBrandType:   2,
	domain.SegmentTypeCountryIssuerBrand: 3,
	domain.SegmentTypeCountryIssuer:      4,
	domain.SegmentTypeIssuerBrand:        5,
	domain.SegmentTypeCountryBrand:       6,
	domain.SegmentTypeIssuer:             7,
	domain.SegmentTypeCountryCardType:    8,
	domain.SegmentTypeCountry:            9,
	domain.SegmentTypeCardBrand:          10,
	domain.SegmentTypeCardType:           11,
	domain.SegmentTypeAmountBucket:       12,
	domain.SegmentTypeHourBucket:         13,
}

// TypePriority returns the deduplication priority of a segment type.
func TypePriority(t domain.SegmentType) int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return unknownTypePriority
}

type Detector struct {
	settings Settings
}

func NewDetector(settings Settings) *Detector {
	if settings.Tail == nil {
		settings.Tail = NormalTail
	}
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	return &Detector{settings: settings}
}

// Detect compares the baseline period against the current period for every
// baseline segment. Records are returned ordered by segment key.
func (d *Detector) Detect(ctx context.Context, stats []domain.SegmentPeriodStat) ([]domain.AnomalyRecord, error) {
	logger := zerolog.Ctx(ctx)

	if err := Validate(stats); err != nil {
		return nil, err
	}

	var baselineRows, currentRows []domain.SegmentPeriodStat
	for _, s := range stats {
		if s.Period == domain.PeriodBaseline {
			baselineRows = append(baselineRows, s)
		} else {
			currentRows = append(currentRows, s)
		}
	}
	if len(baselineRows) == 0 {
		return nil, ErrNoBaseline
	}

	baseline := Deduplicate(baselineRows)
	current := Deduplicate(currentRows)

	keys := make([]string, 0, len(baseline))
	for k := range baseline {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]domain.AnomalyRecord, len(keys))
	changes := make([]float64, len(keys))
	for i, key := range keys {
		records[i] = d.compare(baseline[key], current[key])
		changes[i] = records[i].RateChange
	}

	if orphans := countOrphans(baseline, current); orphans > 0 {
		logger.Debug().Int("segments", orphans).Msg("ignoring segments without a baseline")
	}

	// z-scores need the whole run before any record can be scored
	mean, std := meanStd(changes)
	for i := range records {
		if std == 0 {
			records[i].ZScore = 0
			continue
		}
		records[i].ZScore = (records[i].RateChange - mean) / std
	}

	if err := d.testSignificance(ctx, keys, baseline, current, records); err != nil {
		return nil, err
	}

	flagged := 0
	for i := range records {
		records[i].IsAnomaly = d.isAnomaly(records[i])
		if records[i].IsAnomaly {
			flagged++
		}
	}

	logger.Info().
		Int("segments", len(records)).
		Int("anomalies", flagged).
		Float64("mean_rate_change", mean).
		Float64("std_rate_change", std).
		Msg("anomaly detection completed")

	return records, nil
}

// compare fills every field that depends on a single segment only.
// A missing current row means the segment vanished.
func (d *Detector) compare(base domain.SegmentPeriodStat, cur domain.SegmentPeriodStat) domain.AnomalyRecord {
	baselineRate := base.ApprovalRate()
	currentRate := cur.ApprovalRate()
	rateChange := currentRate - baselineRate

	var avgTicket float64
	if cur.TotalTransactions > 0 {
		avgTicket = cur.TotalAmountUSD / float64(cur.TotalTransactions)
	}

	return domain.AnomalyRecord{
		SegmentKey:                base.SegmentKey,
		SegmentType:               base.SegmentType,
		BaselineRate:              baselineRate,
		CurrentRate:               currentRate,
		RateChange:                rateChange,
		AffectedTransactions:      cur.TotalTransactions,
		AvgTicketUSD:              avgTicket,
		EstimatedRevenueImpactUSD: RevenueImpact(cur.TotalTransactions, avgTicket, rateChange, d.settings),
		PValue:                    1.0,
	}
}

func (d *Detector) testSignificance(
	ctx context.Context,
	keys []string,
	baseline, current map[string]domain.SegmentPeriodStat,
	records []domain.AnomalyRecord,
) error {
	pValue := func(i int) {
		b, c := baseline[keys[i]], current[keys[i]]
		records[i].PValue = TwoProportionPValue(
			b.ApprovedTransactions, b.TotalTransactions,
			c.ApprovedTransactions, c.TotalTransactions,
			d.settings.Tail,
		)
	}

	if d.settings.Workers == 1 {
		for i := range records {
			pValue(i)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.settings.Workers)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pValue(i)
			return nil
		})
	}
	return g.Wait()
}

func (d *Detector) isAnomaly(r domain.AnomalyRecord) bool {
	if r.AffectedTransactions <= d.settings.MinTransactions {
		return false
	}
	// an unchanged rate is never a finding, however unusual it is relative to the run
	if r.RateChange == 0 {
		return false
	}
	return math.Abs(r.ZScore) > d.settings.ZThreshold || r.PValue < d.settings.PThreshold
}

// RevenueImpact converts the window-aggregate transaction count into a weekly
// rate and extrapolates the approval delta to a monthly dollar figure.
func RevenueImpact(affected int64, avgTicket, rateChange float64, settings Settings) float64 {
	return (float64(affected) / settings.WeeksPerPeriod) * avgTicket * math.Abs(rateChange) * settings.WeeksPerMonth
}

// Deduplicate keeps one row per segment key, preferring the most specific
// segment type. Rows with equal priority keep the first one seen.
func Deduplicate(rows []domain.SegmentPeriodStat) map[string]domain.SegmentPeriodStat {
	out := make(map[string]domain.SegmentPeriodStat, len(rows))
	for _, row := range rows {
		existing, ok := out[row.SegmentKey]
		if !ok || TypePriority(row.SegmentType) < TypePriority(existing.SegmentType) {
			out[row.SegmentKey] = row
		}
	}
	return out
}

// Validate rejects rows that cannot be analyzed. The first offending row is
// reported with its index.
func Validate(stats []domain.SegmentPeriodStat) error {
	for i, s := range stats {
		var reason string
		switch {
		case s.SegmentKey == "":
			reason = "segment_key is required"
		case s.Period != domain.PeriodBaseline && s.Period != domain.PeriodCurrent:
			reason = fmt.Sprintf("unknown period %q", s.Period)
		case s.TotalTransactions < 0 || s.ApprovedTransactions < 0:
			reason = "transaction counts must not be negative"
		case s.ApprovedTransactions > s.TotalTransactions:
			reason = fmt.Sprintf("approved transactions (%d) exceed total (%d)", s.ApprovedTransactions, s.TotalTransactions)
		case s.TotalAmountUSD < 0 || math.IsNaN(s.TotalAmountUSD) || math.IsInf(s.TotalAmountUSD, 0):
			reason = "total_amount_usd must be a finite non-negative number"
		}
		if reason != "" {
			return fmt.Errorf("%w: row %d (%s/%s): %s", ErrInvalidInput, i, s.SegmentKey, s.Period, reason)
		}
	}
	return nil
}

func countOrphans(baseline, current map[string]domain.SegmentPeriodStat) int {
	n := 0
	for k := range current {
		if _, ok := baseline[k]; !ok {
			n++
		}
	}
	return n
}
