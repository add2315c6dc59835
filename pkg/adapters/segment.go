package adapters

import (
	"fmt"

	"github.com/de-tools/approval-atlas/pkg/models/api"
	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/models/store"
)

func MapStoreSegmentStatToDomain(s store.SegmentStat) domain.SegmentPeriodStat {
	return domain.SegmentPeriodStat{
		SegmentKey:           s.SegmentKey,
		SegmentType:          domain.SegmentType(s.SegmentType),
		Period:               domain.Period(s.Period),
		TotalTransactions:    s.TotalTransactions,
		ApprovedTransactions: s.ApprovedTransactions,
		TotalAmountUSD:       s.TotalAmountUSD,
	}
}

func MapDomainSegmentStatToStore(s domain.SegmentPeriodStat) store.SegmentStat {
	return store.SegmentStat{
		SegmentKey:           s.SegmentKey,
		SegmentType:          string(s.SegmentType),
		Period:               string(s.Period),
		TotalTransactions:    s.TotalTransactions,
		ApprovedTransactions: s.ApprovedTransactions,
		TotalAmountUSD:       s.TotalAmountUSD,
	}
}

func MapStoreSegmentStatsToDomain(stats []store.SegmentStat) []domain.SegmentPeriodStat {
	res := make([]domain.SegmentPeriodStat, 0, len(stats))
	for _, s := range stats {
		res = append(res, MapStoreSegmentStatToDomain(s))
	}
	return res
}

func MapDomainSegmentStatsToStore(stats []domain.SegmentPeriodStat) []store.SegmentStat {
	res := make([]store.SegmentStat, 0, len(stats))
	for _, s := range stats {
		res = append(res, MapDomainSegmentStatToStore(s))
	}
	return res
}

// MapApiSegmentStatsToDomain rejects rows that omit a count instead of
// reading the missing value as zero.
func MapApiSegmentStatsToDomain(stats []api.SegmentStat) ([]domain.SegmentPeriodStat, error) {
	res := make([]domain.SegmentPeriodStat, 0, len(stats))
	for i, s := range stats {
		var missing string
		switch {
		case s.TotalTransactions == nil:
			missing = "total_transactions"
		case s.ApprovedTransactions == nil:
			missing = "approved_transactions"
		case s.TotalAmountUSD == nil:
			missing = "total_amount_usd"
		}
		if missing != "" {
			return nil, fmt.Errorf("row %d (%s/%s): %s is required", i, s.SegmentKey, s.Period, missing)
		}

		res = append(res, domain.SegmentPeriodStat{
			SegmentKey:           s.SegmentKey,
			SegmentType:          domain.SegmentType(s.SegmentType),
			Period:               domain.Period(s.Period),
			TotalTransactions:    *s.TotalTransactions,
			ApprovedTransactions: *s.ApprovedTransactions,
			TotalAmountUSD:       *s.TotalAmountUSD,
		})
	}
	return res, nil
}

func MapDomainSegmentStatsToApi(stats []domain.SegmentPeriodStat) []api.SegmentStat {
	res := make([]api.SegmentStat, 0, len(stats))
	for _, s := range stats {
		res = append(res, api.SegmentStat{
			SegmentKey:           s.SegmentKey,
			SegmentType:          string(s.SegmentType),
			Period:               string(s.Period),
			TotalTransactions:    &s.TotalTransactions,
			ApprovedTransactions: &s.ApprovedTransactions,
			TotalAmountUSD:       &s.TotalAmountUSD,
		})
	}
	return res
}
