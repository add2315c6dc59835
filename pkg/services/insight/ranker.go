package insight

import (
	"context"
	"math"
	"sort"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// SeverityThresholds holds the monthly dollar impact above which an insight
// reaches each severity.
type SeverityThresholds struct {
	CriticalUSD float64
	HighUSD     float64
	MediumUSD   float64
}

func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{
		CriticalUSD: 50_000,
		HighUSD:     20_000,
		MediumUSD:   5_000,
	}
}

// Classify returns the severity of a monthly revenue impact.
func (t SeverityThresholds) Classify(impactUSD float64) domain.Severity {
	switch {
	case impactUSD > t.CriticalUSD:
		return domain.SeverityCritical
	case impactUSD > t.HighUSD:
		return domain.SeverityHigh
	case impactUSD > t.MediumUSD:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

type Settings struct {
	// TopN caps the number of insights returned (default: 5)
	TopN int
	// MinN is the candidate pool size guaranteed by backfilling non-anomalous records (default: 3)
	MinN int
	// WeeksPerPeriod is quoted in descriptions (default: 3)
	WeeksPerPeriod float64
	Severity       SeverityThresholds
	IDs            IDGenerator
}

func DefaultSettings() Settings {
	return Settings{
		TopN:           5,
		MinN:           3,
		WeeksPerPeriod: 3,
		Severity:       DefaultSeverityThresholds(),
		IDs:            RandomIDs{},
	}
}

type Ranker struct {
	settings Settings
}

func NewRanker(settings Settings) *Ranker {
	defaults := DefaultSettings()
	if settings.TopN < 1 {
		settings.TopN = defaults.TopN
	}
	if settings.MinN < 0 {
		settings.MinN = 0
	}
	if settings.WeeksPerPeriod <= 0 {
		settings.WeeksPerPeriod = defaults.WeeksPerPeriod
	}
	if settings.IDs == nil {
		settings.IDs = defaults.IDs
	}
	return &Ranker{settings: settings}
}

type candidate struct {
	record      domain.AnomalyRecord
	category    domain.Category
	specificity float64
	score       float64
}

// Rank turns anomaly records into at most TopN insights ordered by score.
// It returns an empty slice when there is nothing to rank.
func (r *Ranker) Rank(ctx context.Context, records []domain.AnomalyRecord) []domain.InsightRecord {
	logger := zerolog.Ctx(ctx)

	pool := r.candidatePool(records)
	if len(pool) == 0 {
		logger.Info().Msg("no insight candidates")
		return []domain.InsightRecord{}
	}

	scorePool(pool)
	sortCandidates(pool)
	selected := selectDiverse(pool, r.settings.TopN)

	insights := make([]domain.InsightRecord, 0, len(selected))
	for i, c := range selected {
		rank := i + 1
		insights = append(insights, domain.InsightRecord{
			Rank:                      rank,
			InsightID:                 r.settings.IDs.NewID(rank, c.record),
			Title:                     buildTitle(c.record),
			Description:               buildDescription(c.record, r.settings.WeeksPerPeriod),
			SegmentKey:                c.record.SegmentKey,
			SegmentType:               c.record.SegmentType,
			Category:                  c.category,
			BaselineRate:              c.record.BaselineRate,
			CurrentRate:               c.record.CurrentRate,
			RateChange:                c.record.RateChange,
			ZScore:                    c.record.ZScore,
			PValue:                    c.record.PValue,
			AffectedTransactions:      c.record.AffectedTransactions,
			EstimatedRevenueImpactUSD: c.record.EstimatedRevenueImpactUSD,
			Score:                     c.score,
			Severity:                  r.settings.Severity.Classify(c.record.EstimatedRevenueImpactUSD),
		})
	}

	logger.Info().
		Int("candidates", len(pool)).
		Int("insights", len(insights)).
		Msg("insights ranked")

	return insights
}

// candidatePool returns every flagged record, backfilled with the highest
// impact unflagged records until it holds MinN entries.
func (r *Ranker) candidatePool(records []domain.AnomalyRecord) []*candidate {
	var pool []*candidate
	var rest []domain.AnomalyRecord
	for _, rec := range records {
		if rec.IsAnomaly {
			pool = append(pool, newCandidate(rec))
		} else {
			rest = append(rest, rec)
		}
	}

	if len(pool) >= r.settings.MinN {
		return pool
	}

	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].EstimatedRevenueImpactUSD != rest[j].EstimatedRevenueImpactUSD {
			return rest[i].EstimatedRevenueImpactUSD > rest[j].EstimatedRevenueImpactUSD
		}
		return rest[i].SegmentKey < rest[j].SegmentKey
	})
	for _, rec := range rest {
		if len(pool) >= r.settings.MinN {
			break
		}
		pool = append(pool, newCandidate(rec))
	}
	return pool
}

func newCandidate(rec domain.AnomalyRecord) *candidate {
	return &candidate{
		record:      rec,
		category:    CategoryOf(rec.SegmentType),
		specificity: Specificity(rec.SegmentType),
	}
}

// scorePool normalizes every input over the whole pool before scoring.
func scorePool(pool []*candidate) {
	impact := make([]float64, len(pool))
	magnitude := make([]float64, len(pool))
	significance := make([]float64, len(pool))
	specificity := make([]float64, len(pool))
	for i, c := range pool {
		impact[i] = c.record.EstimatedRevenueImpactUSD
		magnitude[i] = math.Abs(c.record.RateChange)
		significance[i] = 1 - c.record.PValue
		specificity[i] = c.specificity
	}

	impact = Normalize(impact)
	magnitude = Normalize(magnitude)
	significance = Normalize(significance)
	specificity = Normalize(specificity)

	for i, c := range pool {
		c.score = Score(impact[i], magnitude[i], significance[i], specificity[i])
	}
}

// sortCandidates orders by score, then impact, then segment key.
func sortCandidates(pool []*candidate) {
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.record.EstimatedRevenueImpactUSD != b.record.EstimatedRevenueImpactUSD {
			return a.record.EstimatedRevenueImpactUSD > b.record.EstimatedRevenueImpactUSD
		}
		return a.record.SegmentKey < b.record.SegmentKey
	})
}

// selectDiverse expects a pool sorted by score. The first pass takes the best
// candidate of every category, the second fills the remaining slots by score.
// The selection keeps the pool order.
func selectDiverse(sorted []*candidate, topN int) []*candidate {
	picked := make([]bool, len(sorted))
	seen := make(map[domain.Category]bool)
	n := 0

	for i, c := range sorted {
		if n >= topN {
			break
		}
		if seen[c.category] {
			continue
		}
		seen[c.category] = true
		picked[i] = true
		n++
	}

	for i := range sorted {
		if n >= topN {
			break
		}
		if !picked[i] {
			picked[i] = true
			n++
		}
	}

	selected := make([]*candidate, 0, n)
	for i, c := range sorted {
		if picked[i] {
			selected = append(selected, c)
		}
	}
	return selected
}
