package segments

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/de-tools/approval-atlas/pkg/models/store"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb"
	"github.com/rs/zerolog"
)

// Store keeps segment period statistics in DuckDB. Rows are keyed by
// (segment_key, segment_type, period); writing an existing key replaces it.
type Store interface {
	Add(ctx context.Context, stats []store.SegmentStat) error
	List(ctx context.Context) ([]store.SegmentStat, error)
	Import(ctx context.Context, path string) (int64, error)
	Clear(ctx context.Context) error
}

type segmentStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &segmentStore{db: db}, nil
}

func (s *segmentStore) Add(ctx context.Context, stats []store.SegmentStat) error {
	if len(stats) == 0 {
		return nil
	}

	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		stmt, err := duckdb.Conn(ctx, s.db).PrepareContext(ctx, `
			INSERT OR REPLACE INTO segment_stats (
				segment_key, segment_type, period,
				total_transactions, approved_transactions, total_amount_usd
			) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, stat := range stats {
			_, err = stmt.ExecContext(ctx,
				stat.SegmentKey,
				stat.SegmentType,
				stat.Period,
				stat.TotalTransactions,
				stat.ApprovedTransactions,
				stat.TotalAmountUSD,
			)
			if err != nil {
				return fmt.Errorf("insert segment %s/%s: %w", stat.SegmentKey, stat.Period, err)
			}
		}
		return nil
	})
}

func (s *segmentStore) List(ctx context.Context) ([]store.SegmentStat, error) {
	logger := zerolog.Ctx(ctx)

	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT segment_key, segment_type, period,
			total_transactions, approved_transactions, total_amount_usd
		FROM segment_stats
		ORDER BY period, segment_key, segment_type`)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close segment rows")
		}
	}(rows)

	return store.ScanSegmentStats(rows)
}

// Import loads a parquet or CSV file whose columns match segment_stats.
func (s *segmentStore) Import(ctx context.Context, path string) (int64, error) {
	reader, err := fileReader(path)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO segment_stats
		SELECT
			CAST(segment_key AS VARCHAR),
			CAST(segment_type AS VARCHAR),
			CAST(period AS VARCHAR),
			CAST(total_transactions AS BIGINT),
			CAST(approved_transactions AS BIGINT),
			CAST(total_amount_usd AS DOUBLE)
		FROM %s`, reader)

	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Info().Str("path", path).Int64("rows", n).Msg("segments imported")
	return n, nil
}

func (s *segmentStore) Clear(ctx context.Context) error {
	if _, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM segment_stats`); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}
	return nil
}

func fileReader(path string) (string, error) {
	quoted := strings.ReplaceAll(path, "'", "''")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return fmt.Sprintf("read_parquet('%s')", quoted), nil
	case ".csv":
		return fmt.Sprintf("read_csv_auto('%s', header = true, delim = ',')", quoted), nil
	default:
		return "", fmt.Errorf("unsupported segment file %q: expected .parquet or .csv", path)
	}
}
