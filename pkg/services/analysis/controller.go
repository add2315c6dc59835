package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/services/anomaly"
	"github.com/de-tools/approval-atlas/pkg/services/insight"
	"github.com/de-tools/approval-atlas/pkg/services/summary"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Request describes one analysis run. A nil Source falls back to the
// controller's default source.
type Request struct {
	Source SegmentSource
}

type Controller interface {
	Run(ctx context.Context, req Request) (*domain.RunResult, error)
	Latest(ctx context.Context) (*domain.RunResult, error)
	Get(ctx context.Context, runID string) (*domain.RunResult, error)
}

type Dependencies struct {
	Source     SegmentSource
	Store      ResultStore
	Detector   *anomaly.Detector
	Ranker     *insight.Ranker
	Aggregator *summary.Aggregator
	Metrics    *Metrics
	NewRunID   func() string
}

type controller struct {
	deps Dependencies

	mu   sync.Mutex
	last *domain.RunResult
}

func NewController(deps Dependencies) (Controller, error) {
	if deps.Detector == nil || deps.Ranker == nil || deps.Aggregator == nil {
		return nil, fmt.Errorf("detector, ranker and aggregator are required")
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	return &controller{deps: deps}, nil
}

// Run executes detection, ranking and summarization over one source. Runs are
// serialised so that the latest result is always a complete one.
func (c *controller) Run(ctx context.Context, req Request) (*domain.RunResult, error) {
	source := req.Source
	if source == nil {
		source = c.deps.Source
	}
	if source == nil {
		return nil, fmt.Errorf("no segment source configured")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	runID := c.deps.NewRunID()
	logger := zerolog.Ctx(ctx).With().
		Str("run_id", runID).
		Str("source", source.Name()).
		Logger()
	ctx = logger.WithContext(ctx)

	started := time.Now()
	result, err := c.run(ctx, runID, source)
	if err != nil {
		c.deps.Metrics.observeFailure(source.Name(), time.Since(started))
		logger.Error().Err(err).Msg("analysis run failed")
		return nil, err
	}
	c.deps.Metrics.observeSuccess(result, time.Since(started))
	c.last = result

	logger.Info().
		Int("segments", result.Summary.SegmentsAnalyzed).
		Int("anomalies", result.Summary.AnomaliesDetected).
		Int("insights", len(result.Insights)).
		Float64("monthly_impact_usd", result.Summary.TotalMonthlyRevenueImpactUSD).
		Dur("elapsed", time.Since(started)).
		Msg("analysis run completed")

	return result, nil
}

func (c *controller) run(ctx context.Context, runID string, source SegmentSource) (*domain.RunResult, error) {
	stats, err := source.Segments(ctx)
	if err != nil {
		return nil, err
	}

	anomalies, err := c.deps.Detector.Detect(ctx, stats)
	if err != nil {
		return nil, fmt.Errorf("anomaly detection failed: %w", err)
	}

	insights := c.deps.Ranker.Rank(ctx, anomalies)

	result := &domain.RunResult{
		RunID:     runID,
		Source:    source.Name(),
		Anomalies: anomalies,
		Insights:  insights,
		Summary:   c.deps.Aggregator.Summarize(anomalies, insights),
	}

	if c.deps.Store != nil {
		if err := c.deps.Store.Save(ctx, *result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Latest returns the most recent persisted run, or the last in-process run
// when no store is configured.
func (c *controller) Latest(ctx context.Context) (*domain.RunResult, error) {
	if c.deps.Store != nil {
		return c.deps.Store.Latest(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil, ErrNoResult
	}
	return c.last, nil
}

// Get returns a stored run by id. Without a result store only the last run
// of this process can be found.
func (c *controller) Get(ctx context.Context, runID string) (*domain.RunResult, error) {
	if c.deps.Store != nil {
		return c.deps.Store.Get(ctx, runID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil || c.last.RunID != runID {
		return nil, fmt.Errorf("%w: run %s", ErrNoResult, runID)
	}
	return c.last, nil
}
