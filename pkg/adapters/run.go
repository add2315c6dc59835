package adapters

import (
	"time"

	"github.com/de-tools/approval-atlas/pkg/models/api"
	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/models/store"
)

func MapDomainRunToStore(r domain.RunResult, createdAt time.Time) store.AnalysisRun {
	return store.AnalysisRun{
		RunID:                        r.RunID,
		Source:                       r.Source,
		CreatedAt:                    createdAt,
		OverallBaselineRate:          r.Summary.OverallBaselineRate,
		OverallCurrentRate:           r.Summary.OverallCurrentRate,
		TotalRateChange:              r.Summary.TotalRateChange,
		TotalMonthlyRevenueImpactUSD: r.Summary.TotalMonthlyRevenueImpactUSD,
		SegmentsAnalyzed:             r.Summary.SegmentsAnalyzed,
		AnomaliesDetected:            r.Summary.AnomaliesDetected,
		CriticalInsights:             r.Summary.CriticalInsights,
		HighInsights:                 r.Summary.HighInsights,
		MediumInsights:               r.Summary.MediumInsights,
		LowInsights:                  r.Summary.LowInsights,
		AnalysisTimestamp:            r.Summary.AnalysisTimestamp,
	}
}

func MapDomainAnomalyToStore(runID string, a domain.AnomalyRecord) store.Anomaly {
	return store.Anomaly{
		RunID:                     runID,
		SegmentKey:                a.SegmentKey,
		SegmentType:               string(a.SegmentType),
		BaselineRate:              a.BaselineRate,
		CurrentRate:               a.CurrentRate,
		RateChange:                a.RateChange,
		ZScore:                    a.ZScore,
		PValue:                    a.PValue,
		AffectedTransactions:      a.AffectedTransactions,
		AvgTicketUSD:              a.AvgTicketUSD,
		EstimatedRevenueImpactUSD: a.EstimatedRevenueImpactUSD,
		IsAnomaly:                 a.IsAnomaly,
	}
}

func MapDomainInsightToStore(runID string, i domain.InsightRecord) store.Insight {
	return store.Insight{
		RunID:                     runID,
		Rank:                      i.Rank,
		InsightID:                 i.InsightID,
		Title:                     i.Title,
		Description:               i.Description,
		SegmentKey:                i.SegmentKey,
		SegmentType:               string(i.SegmentType),
		Category:                  string(i.Category),
		BaselineRate:              i.BaselineRate,
		CurrentRate:               i.CurrentRate,
		RateChange:                i.RateChange,
		ZScore:                    i.ZScore,
		PValue:                    i.PValue,
		AffectedTransactions:      i.AffectedTransactions,
		EstimatedRevenueImpactUSD: i.EstimatedRevenueImpactUSD,
		Score:                     i.Score,
		Severity:                  string(i.Severity),
	}
}

// MapStoreRunToDomain rebuilds a run result from its persisted rows.
func MapStoreRunToDomain(run store.AnalysisRun, anomalies []store.Anomaly, insights []store.Insight) domain.RunResult {
	res := domain.RunResult{
		RunID:     run.RunID,
		Source:    run.Source,
		Anomalies: make([]domain.AnomalyRecord, 0, len(anomalies)),
		Insights:  make([]domain.InsightRecord, 0, len(insights)),
		Summary: domain.SummaryRecord{
			OverallBaselineRate:          run.OverallBaselineRate,
			OverallCurrentRate:           run.OverallCurrentRate,
			TotalRateChange:              run.TotalRateChange,
			TotalMonthlyRevenueImpactUSD: run.TotalMonthlyRevenueImpactUSD,
			SegmentsAnalyzed:             run.SegmentsAnalyzed,
			AnomaliesDetected:            run.AnomaliesDetected,
			CriticalInsights:             run.CriticalInsights,
			HighInsights:                 run.HighInsights,
			MediumInsights:               run.MediumInsights,
			LowInsights:                  run.LowInsights,
			AnalysisTimestamp:            run.AnalysisTimestamp.UTC(),
		},
	}
	for _, a := range anomalies {
		res.Anomalies = append(res.Anomalies, domain.AnomalyRecord{
			SegmentKey:                a.SegmentKey,
			SegmentType:               domain.SegmentType(a.SegmentType),
			BaselineRate:              a.BaselineRate,
			CurrentRate:               a.CurrentRate,
			RateChange:                a.RateChange,
			ZScore:                    a.ZScore,
			PValue:                    a.PValue,
			AffectedTransactions:      a.AffectedTransactions,
			AvgTicketUSD:              a.AvgTicketUSD,
			EstimatedRevenueImpactUSD: a.EstimatedRevenueImpactUSD,
			IsAnomaly:                 a.IsAnomaly,
		})
	}
	for _, i := range insights {
		res.Insights = append(res.Insights, domain.InsightRecord{
			Rank:                      i.Rank,
			InsightID:                 i.InsightID,
			Title:                     i.Title,
			Description:               i.Description,
			SegmentKey:                i.SegmentKey,
			SegmentType:               domain.SegmentType(i.SegmentType),
			Category:                  domain.Category(i.Category),
			BaselineRate:              i.BaselineRate,
			CurrentRate:               i.CurrentRate,
			RateChange:                i.RateChange,
			ZScore:                    i.ZScore,
			PValue:                    i.PValue,
			AffectedTransactions:      i.AffectedTransactions,
			EstimatedRevenueImpactUSD: i.EstimatedRevenueImpactUSD,
			Score:                     i.Score,
			Severity:                  domain.Severity(i.Severity),
		})
	}
	return res
}

func MapAnomalyDomainToApi(a domain.AnomalyRecord) api.Anomaly {
	return api.Anomaly{
		SegmentKey:                a.SegmentKey,
		SegmentType:               string(a.SegmentType),
		BaselineRate:              a.BaselineRate,
		CurrentRate:               a.CurrentRate,
		RateChange:                a.RateChange,
		ZScore:                    a.ZScore,
		PValue:                    a.PValue,
		IsAnomaly:                 a.IsAnomaly,
		AffectedTransactions:      a.AffectedTransactions,
		AvgTicketUSD:              a.AvgTicketUSD,
		EstimatedRevenueImpactUSD: a.EstimatedRevenueImpactUSD,
	}
}

func MapInsightDomainToApi(i domain.InsightRecord) api.Insight {
	return api.Insight{
		Rank:                      i.Rank,
		InsightID:                 i.InsightID,
		Title:                     i.Title,
		Description:               i.Description,
		SegmentKey:                i.SegmentKey,
		SegmentType:               string(i.SegmentType),
		Category:                  string(i.Category),
		BaselineRate:              i.BaselineRate,
		CurrentRate:               i.CurrentRate,
		RateChange:                i.RateChange,
		ZScore:                    i.ZScore,
		PValue:                    i.PValue,
		AffectedTransactions:      i.AffectedTransactions,
		EstimatedRevenueImpactUSD: i.EstimatedRevenueImpactUSD,
		Score:                     i.Score,
		Severity:                  string(i.Severity),
	}
}

func MapSummaryDomainToApi(s domain.SummaryRecord) api.Summary {
	return api.Summary{
		OverallBaselineRate:          s.OverallBaselineRate,
		OverallCurrentRate:           s.OverallCurrentRate,
		TotalRateChange:              s.TotalRateChange,
		TotalMonthlyRevenueImpactUSD: s.TotalMonthlyRevenueImpactUSD,
		SegmentsAnalyzed:             s.SegmentsAnalyzed,
		AnomaliesDetected:            s.AnomaliesDetected,
		CriticalInsights:             s.CriticalInsights,
		HighInsights:                 s.HighInsights,
		MediumInsights:               s.MediumInsights,
		LowInsights:                  s.LowInsights,
		AnalysisTimestamp:            s.AnalysisTimestamp.UTC(),
	}
}

func MapAnomaliesDomainToApi(records []domain.AnomalyRecord) []api.Anomaly {
	res := make([]api.Anomaly, 0, len(records))
	for _, r := range records {
		res = append(res, MapAnomalyDomainToApi(r))
	}
	return res
}

func MapInsightsDomainToApi(records []domain.InsightRecord) []api.Insight {
	res := make([]api.Insight, 0, len(records))
	for _, r := range records {
		res = append(res, MapInsightDomainToApi(r))
	}
	return res
}

func MapRunDomainToApi(r domain.RunResult) api.Run {
	return api.Run{
		RunID:     r.RunID,
		Source:    r.Source,
		Summary:   MapSummaryDomainToApi(r.Summary),
		Insights:  MapInsightsDomainToApi(r.Insights),
		Anomalies: MapAnomaliesDomainToApi(r.Anomalies),
	}
}
