package anomaly

import (
	"context"
	"math"
	"testing"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/services/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stat(key string, segmentType domain.SegmentType, period domain.Period, total, approved int64, amount float64) domain.SegmentPeriodStat {
	return domain.SegmentPeriodStat{
		SegmentKey:           key,
		SegmentType:          segmentType,
		Period:               period,
		TotalTransactions:    total,
		ApprovedTransactions: approved,
		TotalAmountUSD:       amount,
	}
}

func findRecord(t *testing.T, records []domain.AnomalyRecord, key string) domain.AnomalyRecord {
	t.Helper()
	for _, r := range records {
		if r.SegmentKey == key {
			return r
		}
	}
	t.Fatalf("record %q not found", key)
	return domain.AnomalyRecord{}
}

func TestDetector_IssuerCollapse(t *testing.T) {
	ctx := context.Background()
	detector := NewDetector(DefaultSettings())

	records, err := detector.Detect(ctx, []domain.SegmentPeriodStat{
		stat("MX|Mastercard|Debit|BBVA", domain.SegmentTypeComposite, domain.PeriodBaseline, 1000, 850, 85000),
		stat("MX|Mastercard|Debit|BBVA", domain.SegmentTypeComposite, domain.PeriodCurrent, 1000, 440, 85000),
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, 0.85, r.BaselineRate)
	assert.Equal(t, 0.44, r.CurrentRate)
	assert.Equal(t, r.CurrentRate-r.BaselineRate, r.RateChange)
	assert.InDelta(t, -0.41, r.RateChange, 1e-12)
	assert.Equal(t, int64(1000), r.AffectedTransactions)
	assert.Equal(t, 85.0, r.AvgTicketUSD)
	assert.Less(t, r.PValue, 0.05)
	assert.True(t, r.IsAnomaly)

	expected := (1000.0 / 3) * 85 * math.Abs(r.RateChange) * 4.33
	assert.Equal(t, expected, r.EstimatedRevenueImpactUSD)
	assert.InDelta(t, 50300.17, r.EstimatedRevenueImpactUSD, 0.01)
}

func TestDetector_VanishedSegment(t *testing.T) {
	ctx := context.Background()
	detector := NewDetector(DefaultSettings())

	records, err := detector.Detect(ctx, []domain.SegmentPeriodStat{
		stat("CO|Visa|Credit|Nequi", domain.SegmentTypeComposite, domain.PeriodBaseline, 1000, 800, 40000),
		stat("CO", domain.SegmentTypeCountry, domain.PeriodBaseline, 2000, 1600, 80000),
		stat("CO", domain.SegmentTypeCountry, domain.PeriodCurrent, 2000, 1500, 80000),
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := findRecord(t, records, "CO|Visa|Credit|Nequi")
	assert.Equal(t, 0.0, r.CurrentRate)
	assert.Equal(t, -r.BaselineRate, r.RateChange)
	assert.Equal(t, int64(0), r.AffectedTransactions)
	assert.Equal(t, 0.0, r.AvgTicketUSD)
	assert.Equal(t, 0.0, r.EstimatedRevenueImpactUSD)
	assert.False(t, math.IsNaN(r.EstimatedRevenueImpactUSD))
	assert.Equal(t, 1.0, r.PValue)
	assert.False(t, r.IsAnomaly)
}

func TestDetector_ZeroVariance(t *testing.T) {
	ctx := context.Background()
	detector := NewDetector(DefaultSettings())

	var rows []domain.SegmentPeriodStat
	for _, key := range []string{"BR", "MX", "CO"} {
		rows = append(rows,
			stat(key, domain.SegmentTypeCountry, domain.PeriodBaseline, 1000, 800, 1000),
			stat(key, domain.SegmentTypeCountry, domain.PeriodCurrent, 1000, 700, 1000),
		)
	}

	records, err := detector.Detect(ctx, rows)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, 0.0, r.ZScore)
		// the significance test alone still flags the shift
		assert.True(t, r.IsAnomaly)
	}
}

func TestDetector_UnchangedRateNeverFlagged(t *testing.T) {
	ctx := context.Background()
	detector := NewDetector(DefaultSettings())

	rows := []domain.SegmentPeriodStat{
		stat("stable", domain.SegmentTypeIssuer, domain.PeriodBaseline, 5000, 4250, 1000),
		stat("stable", domain.SegmentTypeIssuer, domain.PeriodCurrent, 5000, 4250, 1000),
	}
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		rows = append(rows,
			stat(key, domain.SegmentTypeIssuer, domain.PeriodBaseline, 1000, 800, 1000),
			stat(key, domain.SegmentTypeIssuer, domain.PeriodCurrent, 1000, 400, 1000),
		)
	}

	records, err := detector.Detect(ctx, rows)
	require.NoError(t, err)

	r := findRecord(t, records, "stable")
	assert.Equal(t, 0.0, r.RateChange)
	assert.Greater(t, math.Abs(r.ZScore), 2.0)
	assert.Equal(t, 1.0, r.PValue)
	assert.False(t, r.IsAnomaly)
}

func TestDetector_SmallSampleFloor(t *testing.T) {
	ctx := context.Background()
	detector := NewDetector(DefaultSettings())

	records, err := detector.Detect(ctx, []domain.SegmentPeriodStat{
		stat("tiny", domain.SegmentTypeIssuer, domain.PeriodBaseline, 50, 50, 500),
		stat("tiny", domain.SegmentTypeIssuer, domain.PeriodCurrent, 50, 5, 500),
		stat("big", domain.SegmentTypeIssuer, domain.PeriodBaseline, 51, 50, 500),
		stat("big", domain.SegmentTypeIssuer, domain.PeriodCurrent, 51, 5, 500),
	})
	require.NoError(t, err)

	tiny := findRecord(t, records, "tiny")
	assert.Less(t, tiny.PValue, 0.05)
	assert.False(t, tiny.IsAnomaly)

	big := findRecord(t, records, "big")
	assert.True(t, big.IsAnomaly)
}

func TestDetector_CustomThresholds(t *testing.T) {
	ctx := context.Background()
	settings := DefaultSettings()
	settings.MinTransactions = 5000
	detector := NewDetector(settings)

	records, err := detector.Detect(ctx, sample.Segments())
	require.NoError(t, err)
	for _, r := range records {
		assert.False(t, r.IsAnomaly, r.SegmentKey)
	}
}

func TestDetector_Deduplication(t *testing.T) {
	ctx := context.Background()
	detector := NewDetector(DefaultSettings())

	t.Run("most specific type wins", func(t *testing.T) {
		records, err := detector.Detect(ctx, []domain.SegmentPeriodStat{
			stat("MX|BBVA", domain.SegmentTypeIssuer, domain.PeriodBaseline, 100, 90, 1000),
			stat("MX|BBVA", domain.SegmentTypeCountryIssuer, domain.PeriodBaseline, 200, 100, 1000),
			stat("MX|BBVA", domain.SegmentTypeIssuer, domain.PeriodCurrent, 100, 10, 1000),
			stat("MX|BBVA", domain.SegmentTypeCountryIssuer, domain.PeriodCurrent, 200, 50, 1000),
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, domain.SegmentTypeCountryIssuer, records[0].SegmentType)
		assert.Equal(t, 0.5, records[0].BaselineRate)
		assert.Equal(t, 0.25, records[0].CurrentRate)
		assert.Equal(t, int64(200), records[0].AffectedTransactions)
	})

	t.Run("unknown types sort last", func(t *testing.T) {
		rows := Deduplicate([]domain.SegmentPeriodStat{
			stat("k", "mystery", domain.PeriodBaseline, 10, 1, 0),
			stat("k", domain.SegmentTypeHourBucket, domain.PeriodBaseline, 20, 2, 0),
		})
		assert.Equal(t, domain.SegmentTypeHourBucket, rows["k"].SegmentType)
		assert.Equal(t, 99, TypePriority("mystery"))
	})

	t.Run("equal priority keeps the first row", func(t *testing.T) {
		rows := Deduplicate([]domain.SegmentPeriodStat{
			stat("k", domain.SegmentTypeCountry, domain.PeriodBaseline, 10, 1, 0),
			stat("k", domain.SegmentTypeCountry, domain.PeriodBaseline, 20, 2, 0),
		})
		assert.Equal(t, int64(10), rows["k"].TotalTransactions)
	})
}

func TestDetector_CurrentOnlySegmentsDropped(t *testing.T) {
	ctx := context.Background()
	detector := NewDetector(DefaultSettings())

	records, err := detector.Detect(ctx, []domain.SegmentPeriodStat{
		stat("BR", domain.SegmentTypeCountry, domain.PeriodBaseline, 100, 80, 1000),
		stat("BR", domain.SegmentTypeCountry, domain.PeriodCurrent, 100, 70, 1000),
		stat("AR", domain.SegmentTypeCountry, domain.PeriodCurrent, 100, 10, 1000),
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "BR", records[0].SegmentKey)
}

func TestDetector_Errors(t *testing.T) {
	ctx := context.Background()
	detector := NewDetector(DefaultSettings())

	t.Run("no baseline", func(t *testing.T) {
		_, err := detector.Detect(ctx, nil)
		assert.ErrorIs(t, err, ErrNoBaseline)

		_, err = detector.Detect(ctx, []domain.SegmentPeriodStat{
			stat("BR", domain.SegmentTypeCountry, domain.PeriodCurrent, 100, 80, 1000),
		})
		assert.ErrorIs(t, err, ErrNoBaseline)
		assert.EqualError(t, err, "no baseline data available")
	})

	invalid := []struct {
		name string
		row  domain.SegmentPeriodStat
	}{
		{name: "missing key", row: stat("", domain.SegmentTypeCountry, domain.PeriodBaseline, 10, 5, 1)},
		{name: "unknown period", row: stat("BR", domain.SegmentTypeCountry, "weeks_1_3", 10, 5, 1)},
		{name: "negative total", row: stat("BR", domain.SegmentTypeCountry, domain.PeriodBaseline, -1, 0, 1)},
		{name: "negative approved", row: stat("BR", domain.SegmentTypeCountry, domain.PeriodBaseline, 10, -5, 1)},
		{name: "approved exceeds total", row: stat("BR", domain.SegmentTypeCountry, domain.PeriodBaseline, 10, 11, 1)},
		{name: "negative amount", row: stat("BR", domain.SegmentTypeCountry, domain.PeriodBaseline, 10, 5, -1)},
		{name: "NaN amount", row: stat("BR", domain.SegmentTypeCountry, domain.PeriodBaseline, 10, 5, math.NaN())},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := detector.Detect(ctx, []domain.SegmentPeriodStat{
				stat("CO", domain.SegmentTypeCountry, domain.PeriodBaseline, 10, 5, 1),
				tt.row,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), "row 1")
		})
	}
}

func TestDetector_SampleProperties(t *testing.T) {
	ctx := context.Background()
	records, err := NewDetector(DefaultSettings()).Detect(ctx, sample.Segments())
	require.NoError(t, err)
	require.Len(t, records, 27)

	for i, r := range records {
		assert.GreaterOrEqual(t, r.BaselineRate, 0.0)
		assert.LessOrEqual(t, r.BaselineRate, 1.0)
		assert.GreaterOrEqual(t, r.CurrentRate, 0.0)
		assert.LessOrEqual(t, r.CurrentRate, 1.0)
		assert.Equal(t, r.CurrentRate-r.BaselineRate, r.RateChange)
		assert.GreaterOrEqual(t, r.PValue, 0.0)
		assert.LessOrEqual(t, r.PValue, 1.0)
		if r.AffectedTransactions <= 50 {
			assert.False(t, r.IsAnomaly)
		}
		if i > 0 {
			assert.Less(t, records[i-1].SegmentKey, r.SegmentKey)
		}
	}

	bbva := findRecord(t, records, "MX|Mastercard|Debit|BBVA")
	assert.True(t, bbva.IsAnomaly)
	assert.Less(t, bbva.ZScore, -2.0)
}

func TestDetector_ParallelMatchesSequential(t *testing.T) {
	ctx := context.Background()
	sequential, err := NewDetector(DefaultSettings()).Detect(ctx, sample.Segments())
	require.NoError(t, err)

	settings := DefaultSettings()
	settings.Workers = 8
	parallel, err := NewDetector(settings).Detect(ctx, sample.Segments())
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestDetector_Idempotent(t *testing.T) {
	ctx := context.Background()
	detector := NewDetector(DefaultSettings())

	first, err := detector.Detect(ctx, sample.Segments())
	require.NoError(t, err)
	second, err := detector.Detect(ctx, sample.Segments())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
