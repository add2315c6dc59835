package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/models/store"
	"github.com/rs/zerolog"

	_ "github.com/databricks/databricks-sql-go"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/snowflakedb/gosnowflake"
)

// tableName accepts table, schema.table and catalog.schema.table.
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*){0,2}$`)

var drivers = map[domain.SourceType]string{
	domain.SourceTypeDuckDB:     "duckdb",
	domain.SourceTypeSnowflake:  "snowflake",
	domain.SourceTypeDatabricks: "databricks",
}

// Open connects to the warehouse a profile points at.
func Open(profile domain.SourceProfile) (*sql.DB, error) {
	driver, ok := drivers[profile.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported source type %q", profile.Type)
	}

	db, err := sql.Open(driver, profile.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", profile, err)
	}
	return db, nil
}

// Source reads segment period statistics from a warehouse table with the
// segment_stats column layout.
type Source struct {
	db    *sql.DB
	table string
}

func NewSource(db *sql.DB, table string) (*Source, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Source{db: db, table: table}, nil
}

func (s *Source) List(ctx context.Context) ([]store.SegmentStat, error) {
	logger := zerolog.Ctx(ctx)
	query := fmt.Sprintf(`
		SELECT
			segment_key,
			segment_type,
			period,
			total_transactions,
			approved_transactions,
			total_amount_usd
		FROM %s
		WHERE period IN ('baseline', 'current')
		ORDER BY period, segment_key, segment_type
	`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("segment query on %s failed: %w", s.table, err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close segment query rows")
		}
	}(rows)

	stats, err := store.ScanSegmentStats(rows)
	if err != nil {
		return nil, fmt.Errorf("read segments from %s: %w", s.table, err)
	}

	logger.Debug().Str("table", s.table).Int("rows", len(stats)).Msg("segments collected")
	return stats, nil
}
