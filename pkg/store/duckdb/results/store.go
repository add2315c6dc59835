package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/de-tools/approval-atlas/pkg/models/store"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("analysis run not found")

// Store persists analysis runs together with their anomaly and insight rows.
type Store interface {
	Save(ctx context.Context, run store.AnalysisRun, anomalies []store.Anomaly, insights []store.Insight) error
	LatestRun(ctx context.Context) (*store.AnalysisRun, error)
	GetRun(ctx context.Context, runID string) (*store.AnalysisRun, error)
	ListRuns(ctx context.Context, limit int) ([]store.AnalysisRun, error)
	GetAnomalies(ctx context.Context, runID string) ([]store.Anomaly, error)
	GetInsights(ctx context.Context, runID string) ([]store.Insight, error)
}

type resultStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &resultStore{db: db}, nil
}

func (s *resultStore) Save(ctx context.Context, run store.AnalysisRun, anomalies []store.Anomaly, insights []store.Insight) error {
	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		conn := duckdb.Conn(ctx, s.db)

		_, err := conn.ExecContext(ctx, `
			INSERT INTO analysis_runs (
				run_id, source, created_at,
				overall_baseline_rate, overall_current_rate, total_rate_change,
				total_monthly_revenue_impact_usd, segments_analyzed, anomalies_detected,
				critical_insights, high_insights, medium_insights, low_insights,
				analysis_timestamp
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Source, run.CreatedAt,
			run.OverallBaselineRate, run.OverallCurrentRate, run.TotalRateChange,
			run.TotalMonthlyRevenueImpactUSD, run.SegmentsAnalyzed, run.AnomaliesDetected,
			run.CriticalInsights, run.HighInsights, run.MediumInsights, run.LowInsights,
			run.AnalysisTimestamp,
		)
		if err != nil {
			return fmt.Errorf("insert run %s: %w", run.RunID, err)
		}

		if err := s.addAnomalies(ctx, conn, run.RunID, anomalies); err != nil {
			return err
		}
		return s.addInsights(ctx, conn, run.RunID, insights)
	})
}

func (s *resultStore) addAnomalies(ctx context.Context, conn duckdb.Querier, runID string, anomalies []store.Anomaly) error {
	if len(anomalies) == 0 {
		return nil
	}

	stmt, err := conn.PrepareContext(ctx, `
		INSERT INTO anomaly_records (
			run_id, segment_key, segment_type, baseline_rate, current_rate, rate_change,
			z_score, p_value, affected_transactions, avg_ticket_usd,
			estimated_revenue_impact_usd, is_anomaly
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range anomalies {
		_, err = stmt.ExecContext(ctx,
			runID, a.SegmentKey, a.SegmentType, a.BaselineRate, a.CurrentRate, a.RateChange,
			a.ZScore, a.PValue, a.AffectedTransactions, a.AvgTicketUSD,
			a.EstimatedRevenueImpactUSD, a.IsAnomaly,
		)
		if err != nil {
			return fmt.Errorf("insert anomaly %s: %w", a.SegmentKey, err)
		}
	}
	return nil
}

func (s *resultStore) addInsights(ctx context.Context, conn duckdb.Querier, runID string, insights []store.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	stmt, err := conn.PrepareContext(ctx, `
		INSERT INTO insight_records (
			run_id, insight_rank, insight_id, title, description, segment_key, segment_type,
			category, baseline_rate, current_rate, rate_change, z_score, p_value,
			affected_transactions, estimated_revenue_impact_usd, score, severity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, i := range insights {
		_, err = stmt.ExecContext(ctx,
			runID, i.Rank, i.InsightID, i.Title, i.Description, i.SegmentKey, i.SegmentType,
			i.Category, i.BaselineRate, i.CurrentRate, i.RateChange, i.ZScore, i.PValue,
			i.AffectedTransactions, i.EstimatedRevenueImpactUSD, i.Score, i.Severity,
		)
		if err != nil {
			return fmt.Errorf("insert insight %d: %w", i.Rank, err)
		}
	}
	return nil
}

const runColumns = `
	run_id, source, created_at,
	overall_baseline_rate, overall_current_rate, total_rate_change,
	total_monthly_revenue_impact_usd, segments_analyzed, anomalies_detected,
	critical_insights, high_insights, medium_insights, low_insights,
	analysis_timestamp`

func (s *resultStore) LatestRun(ctx context.Context) (*store.AnalysisRun, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}

func (s *resultStore) GetRun(ctx context.Context, runID string) (*store.AnalysisRun, error) {
	row := duckdb.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (s *resultStore) ListRuns(ctx context.Context, limit int) ([]store.AnalysisRun, error) {
	logger := zerolog.Ctx(ctx)
	if limit < 1 {
		limit = 1
	}

	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+runColumns+` FROM analysis_runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close run rows")
		}
	}(rows)

	var runs []store.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*store.AnalysisRun, error) {
	var run store.AnalysisRun
	err := row.Scan(
		&run.RunID, &run.Source, &run.CreatedAt,
		&run.OverallBaselineRate, &run.OverallCurrentRate, &run.TotalRateChange,
		&run.TotalMonthlyRevenueImpactUSD, &run.SegmentsAnalyzed, &run.AnomaliesDetected,
		&run.CriticalInsights, &run.HighInsights, &run.MediumInsights, &run.LowInsights,
		&run.AnalysisTimestamp,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *resultStore) GetAnomalies(ctx context.Context, runID string) ([]store.Anomaly, error) {
	logger := zerolog.Ctx(ctx)

	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT run_id, segment_key, segment_type, baseline_rate, current_rate, rate_change,
			z_score, p_value, affected_transactions, avg_ticket_usd,
			estimated_revenue_impact_usd, is_anomaly
		FROM anomaly_records
		WHERE run_id = ?
		ORDER BY segment_key`, runID)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close anomaly rows")
		}
	}(rows)

	anomalies := []store.Anomaly{}
	for rows.Next() {
		var a store.Anomaly
		if err := rows.Scan(
			&a.RunID, &a.SegmentKey, &a.SegmentType, &a.BaselineRate, &a.CurrentRate, &a.RateChange,
			&a.ZScore, &a.PValue, &a.AffectedTransactions, &a.AvgTicketUSD,
			&a.EstimatedRevenueImpactUSD, &a.IsAnomaly,
		); err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}
		anomalies = append(anomalies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anomalies: %w", err)
	}
	return anomalies, nil
}

func (s *resultStore) GetInsights(ctx context.Context, runID string) ([]store.Insight, error) {
	logger := zerolog.Ctx(ctx)

	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT run_id, insight_rank, insight_id, title, description, segment_key, segment_type,
			category, baseline_rate, current_rate, rate_change, z_score, p_value,
			affected_transactions, estimated_revenue_impact_usd, score, severity
		FROM insight_records
		WHERE run_id = ?
		ORDER BY insight_rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close insight rows")
		}
	}(rows)

	insights := []store.Insight{}
	for rows.Next() {
		var i store.Insight
		if err := rows.Scan(
			&i.RunID, &i.Rank, &i.InsightID, &i.Title, &i.Description, &i.SegmentKey, &i.SegmentType,
			&i.Category, &i.BaselineRate, &i.CurrentRate, &i.RateChange, &i.ZScore, &i.PValue,
			&i.AffectedTransactions, &i.EstimatedRevenueImpactUSD, &i.Score, &i.Severity,
		); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		insights = append(insights, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insights: %w", err)
	}
	return insights, nil
}
