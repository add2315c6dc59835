package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const SegmentStatsSchema = `
	CREATE TABLE IF NOT EXISTS segment_stats (
		segment_key VARCHAR NOT NULL,
		segment_type VARCHAR NOT NULL,
		period VARCHAR NOT NULL,
		total_transactions BIGINT NOT NULL,
		approved_transactions BIGINT NOT NULL,
		total_amount_usd DOUBLE NOT NULL,
		PRIMARY KEY (segment_key, segment_type, period)
	);
`

const AnalysisRunsSchema = `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		run_id VARCHAR PRIMARY KEY,
		source VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		overall_baseline_rate DOUBLE,
		overall_current_rate DOUBLE,
		total_rate_change DOUBLE,
		total_monthly_revenue_impact_usd DOUBLE,
		segments_analyzed INTEGER,
		anomalies_detected INTEGER,
		critical_insights INTEGER,
		high_insights INTEGER,
		medium_insights INTEGER,
		low_insights INTEGER,
		analysis_timestamp TIMESTAMP
	);
`

const AnomalyRecordsSchema = `
	CREATE TABLE IF NOT EXISTS anomaly_records (
		run_id VARCHAR NOT NULL,
		segment_key VARCHAR NOT NULL,
		segment_type VARCHAR NOT NULL,
		baseline_rate DOUBLE,
		current_rate DOUBLE,
		rate_change DOUBLE,
		z_score DOUBLE,
		p_value DOUBLE,
		affected_transactions BIGINT,
		avg_ticket_usd DOUBLE,
		estimated_revenue_impact_usd DOUBLE,
		is_anomaly BOOLEAN,
		PRIMARY KEY (run_id, segment_key)
	);
`

const InsightRecordsSchema = `
	CREATE TABLE IF NOT EXISTS insight_records (
		run_id VARCHAR NOT NULL,
		insight_rank INTEGER NOT NULL,
		insight_id VARCHAR NOT NULL,
		title VARCHAR,
		description VARCHAR,
		segment_key VARCHAR NOT NULL,
		segment_type VARCHAR NOT NULL,
		category VARCHAR,
		baseline_rate DOUBLE,
		current_rate DOUBLE,
		rate_change DOUBLE,
		z_score DOUBLE,
		p_value DOUBLE,
		affected_transactions BIGINT,
		estimated_revenue_impact_usd DOUBLE,
		score DOUBLE,
		severity VARCHAR,
		PRIMARY KEY (run_id, insight_rank)
	);
`

var bootQueries = []string{
	SegmentStatsSchema,
	AnalysisRunsSchema,
	AnomalyRecordsSchema,
	InsightRecordsSchema,
}

type Settings struct {
	// DbPath is the database file; empty opens an in-memory database
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(c), nil
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn returns the transaction bound to ctx, falling back to db.
func Conn(ctx context.Context, db *sql.DB) Querier {
	if tx := GetTransaction(ctx); tx != nil {
		return tx
	}
	return db
}

// InTransaction runs fn inside a transaction carried by the context passed to
// it. A transaction already bound to ctx is reused.
func InTransaction(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if GetTransaction(ctx) != nil {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(WithTransaction(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
