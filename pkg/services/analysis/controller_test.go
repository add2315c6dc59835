package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/models/store"
	"github.com/de-tools/approval-atlas/pkg/services/anomaly"
	"github.com/de-tools/approval-atlas/pkg/services/insight"
	"github.com/de-tools/approval-atlas/pkg/services/summary"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb/results"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Name() string {
	return "mock"
}

func (m *mockSource) Segments(ctx context.Context) ([]domain.SegmentPeriodStat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SegmentPeriodStat), args.Error(1)
}

type mockResultStore struct {
	mock.Mock
}

func (m *mockResultStore) Save(ctx context.Context, result domain.RunResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *mockResultStore) Latest(ctx context.Context) (*domain.RunResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunResult), args.Error(1)
}

func (m *mockResultStore) Get(ctx context.Context, runID string) (*domain.RunResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunResult), args.Error(1)
}

type mockLister struct {
	mock.Mock
}

func (m *mockLister) List(ctx context.Context) ([]store.SegmentStat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.SegmentStat), args.Error(1)
}

var fixedTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func testDependencies(reg prometheus.Registerer) Dependencies {
	rankerSettings := insight.DefaultSettings()
	rankerSettings.IDs = insight.NewSeededIDs("test")
	return Dependencies{
		Source:     NewSampleSource(),
		Detector:   anomaly.NewDetector(anomaly.DefaultSettings()),
		Ranker:     insight.NewRanker(rankerSettings),
		Aggregator: summary.NewAggregator(func() time.Time { return fixedTime }),
		Metrics:    NewMetrics(reg),
		NewRunID:   func() string { return "run-1" },
	}
}

func TestNewController_RequiresPipeline(t *testing.T) {
	_, err := NewController(Dependencies{})
	require.Error(t, err)
}

func TestController_RunSample(t *testing.T) {
	reg := prometheus.NewRegistry()
	deps := testDependencies(reg)
	ctrl, err := NewController(deps)
	require.NoError(t, err)

	result, err := ctrl.Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, "sample", result.Source)
	assert.Len(t, result.Anomalies, 27)
	require.Len(t, result.Insights, 5)
	assert.Equal(t, "MX|Mastercard|Debit|BBVA", result.Insights[0].SegmentKey)
	assert.Equal(t, 27, result.Summary.SegmentsAnalyzed)
	assert.Equal(t, 1, result.Summary.CriticalInsights)
	assert.Equal(t, fixedTime, result.Summary.AnalysisTimestamp)

	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.runs.WithLabelValues("sample", outcomeSuccess)))
	assert.Equal(t, 27.0, testutil.ToFloat64(deps.Metrics.segments))
	assert.Equal(t, 3.0, testutil.ToFloat64(deps.Metrics.insights.WithLabelValues("high")))

	latest, err := ctrl.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result, latest)

	byID, err := ctrl.Get(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, result, byID)

	_, err = ctrl.Get(context.Background(), "run-2")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestController_LatestWithoutRun(t *testing.T) {
	ctrl, err := NewController(testDependencies(nil))
	require.NoError(t, err)

	_, err = ctrl.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestController_RunWithRequestSource(t *testing.T) {
	source := new(mockSource)
	source.On("Segments", mock.Anything).Return([]domain.SegmentPeriodStat{
		{SegmentKey: "BR", SegmentType: domain.SegmentTypeCountry, Period: domain.PeriodBaseline, TotalTransactions: 1000, ApprovedTransactions: 900, TotalAmountUSD: 100000},
		{SegmentKey: "BR", SegmentType: domain.SegmentTypeCountry, Period: domain.PeriodCurrent, TotalTransactions: 1000, ApprovedTransactions: 600, TotalAmountUSD: 100000},
	}, nil)

	ctrl, err := NewController(testDependencies(nil))
	require.NoError(t, err)

	result, err := ctrl.Run(context.Background(), Request{Source: source})
	require.NoError(t, err)
	assert.Equal(t, "mock", result.Source)
	require.Len(t, result.Anomalies, 1)
	assert.True(t, result.Anomalies[0].IsAnomaly)
	require.Len(t, result.Insights, 1)
	source.AssertExpectations(t)
}

func TestController_RunErrors(t *testing.T) {
	t.Run("source failure", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		deps := testDependencies(reg)
		source := new(mockSource)
		source.On("Segments", mock.Anything).Return(nil, errors.New("warehouse offline"))
		deps.Source = source

		ctrl, err := NewController(deps)
		require.NoError(t, err)

		_, err = ctrl.Run(context.Background(), Request{})
		assert.EqualError(t, err, "warehouse offline")
		assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.runs.WithLabelValues("mock", outcomeFailure)))
	})

	t.Run("no baseline", func(t *testing.T) {
		deps := testDependencies(nil)
		deps.Source = NewStaticSource("current-only", []domain.SegmentPeriodStat{
			{SegmentKey: "BR", SegmentType: domain.SegmentTypeCountry, Period: domain.PeriodCurrent, TotalTransactions: 10},
		})
		ctrl, err := NewController(deps)
		require.NoError(t, err)

		_, err = ctrl.Run(context.Background(), Request{})
		assert.ErrorIs(t, err, anomaly.ErrNoBaseline)
	})

	t.Run("invalid input", func(t *testing.T) {
		deps := testDependencies(nil)
		deps.Source = NewStaticSource("broken", []domain.SegmentPeriodStat{
			{SegmentKey: "BR", SegmentType: domain.SegmentTypeCountry, Period: domain.PeriodBaseline, TotalTransactions: 10, ApprovedTransactions: 11},
		})
		ctrl, err := NewController(deps)
		require.NoError(t, err)

		_, err = ctrl.Run(context.Background(), Request{})
		assert.ErrorIs(t, err, anomaly.ErrInvalidInput)
	})

	t.Run("no source", func(t *testing.T) {
		deps := testDependencies(nil)
		deps.Source = nil
		ctrl, err := NewController(deps)
		require.NoError(t, err)

		_, err = ctrl.Run(context.Background(), Request{})
		assert.EqualError(t, err, "no segment source configured")
	})

	t.Run("store failure", func(t *testing.T) {
		deps := testDependencies(nil)
		resultStore := new(mockResultStore)
		resultStore.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		deps.Store = resultStore

		ctrl, err := NewController(deps)
		require.NoError(t, err)

		_, err = ctrl.Run(context.Background(), Request{})
		assert.EqualError(t, err, "disk full")
		resultStore.AssertExpectations(t)
	})
}

func TestController_PersistsAndReadsLatest(t *testing.T) {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: filepath.Join(t.TempDir(), "atlas.db")})
	require.NoError(t, err)
	defer db.Close()

	resultsStore, err := results.NewStore(db)
	require.NoError(t, err)

	deps := testDependencies(nil)
	deps.Store = NewResultStore(resultsStore)
	ctrl, err := NewController(deps)
	require.NoError(t, err)

	_, err = ctrl.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoResult)

	result, err := ctrl.Run(context.Background(), Request{})
	require.NoError(t, err)

	latest, err := ctrl.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.RunID, latest.RunID)
	assert.Equal(t, result.Summary, latest.Summary)
	assert.Equal(t, result.Insights, latest.Insights)
	assert.Equal(t, result.Anomalies, latest.Anomalies)

	byID, err := ctrl.Get(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, latest, byID)

	_, err = ctrl.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestController_ConcurrentRuns(t *testing.T) {
	deps := testDependencies(nil)
	ctrl, err := NewController(deps)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctrl.Run(context.Background(), Request{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	latest, err := ctrl.Latest(context.Background())
	require.NoError(t, err)
	assert.Len(t, latest.Insights, 5)
}

func TestListerSource(t *testing.T) {
	lister := new(mockLister)
	lister.On("List", mock.Anything).Return([]store.SegmentStat{
		{SegmentKey: "BR", SegmentType: "country", Period: "baseline", TotalTransactions: 10, ApprovedTransactions: 9, TotalAmountUSD: 50},
	}, nil).Once()
	lister.On("List", mock.Anything).Return(nil, errors.New("timeout")).Once()

	source := NewListerSource("duckdb:local", lister)
	assert.Equal(t, "duckdb:local", source.Name())

	stats, err := source.Segments(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.PeriodBaseline, stats[0].Period)
	assert.Equal(t, domain.SegmentTypeCountry, stats[0].SegmentType)

	_, err = source.Segments(context.Background())
	assert.EqualError(t, err, "failed to load segments from duckdb:local: timeout")
}
