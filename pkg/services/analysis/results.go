package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/approval-atlas/pkg/adapters"
	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/models/store"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb/results"
)

var ErrNoResult = errors.New("no analysis result available")

// ResultStore persists complete run results.
type ResultStore interface {
	Save(ctx context.Context, result domain.RunResult) error
	Latest(ctx context.Context) (*domain.RunResult, error)
	Get(ctx context.Context, runID string) (*domain.RunResult, error)
}

type resultRepository struct {
	store results.Store
	now   func() time.Time
}

func NewResultStore(s results.Store) ResultStore {
	return &resultRepository{store: s, now: time.Now}
}

func (r *resultRepository) Save(ctx context.Context, result domain.RunResult) error {
	anomalies := make([]store.Anomaly, 0, len(result.Anomalies))
	for _, a := range result.Anomalies {
		anomalies = append(anomalies, adapters.MapDomainAnomalyToStore(result.RunID, a))
	}
	insights := make([]store.Insight, 0, len(result.Insights))
	for _, i := range result.Insights {
		insights = append(insights, adapters.MapDomainInsightToStore(result.RunID, i))
	}

	run := adapters.MapDomainRunToStore(result, r.now().UTC())
	if err := r.store.Save(ctx, run, anomalies, insights); err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.RunID, err)
	}
	return nil
}

func (r *resultRepository) Latest(ctx context.Context) (*domain.RunResult, error) {
	run, err := r.store.LatestRun(ctx)
	if errors.Is(err, results.ErrNotFound) {
		return nil, ErrNoResult
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}
	return r.load(ctx, run)
}

func (r *resultRepository) Get(ctx context.Context, runID string) (*domain.RunResult, error) {
	run, err := r.store.GetRun(ctx, runID)
	if errors.Is(err, results.ErrNotFound) {
		return nil, fmt.Errorf("%w: run %s", ErrNoResult, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return r.load(ctx, run)
}

func (r *resultRepository) load(ctx context.Context, run *store.AnalysisRun) (*domain.RunResult, error) {
	anomalies, err := r.store.GetAnomalies(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load anomalies of run %s: %w", run.RunID, err)
	}
	insights, err := r.store.GetInsights(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load insights of run %s: %w", run.RunID, err)
	}

	result := adapters.MapStoreRunToDomain(*run, anomalies, insights)
	return &result, nil
}
