package warehouse

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/models/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var segmentColumns = []string{
	"segment_key", "segment_type", "period",
	"total_transactions", "approved_transactions", "total_amount_usd",
}

func TestSource_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments.analytics.segment_stats")).
		WillReturnRows(sqlmock.NewRows(segmentColumns).
			AddRow("BR", "country", "baseline", 3600, 3024, 540000.0).
			AddRow("BR", "country", "current", 3500, 2835, 525000.0))

	source, err := NewSource(db, "payments.analytics.segment_stats")
	require.NoError(t, err)

	stats, err := source.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []store.SegmentStat{
		{SegmentKey: "BR", SegmentType: "country", Period: "baseline", TotalTransactions: 3600, ApprovedTransactions: 3024, TotalAmountUSD: 540000},
		{SegmentKey: "BR", SegmentType: "country", Period: "current", TotalTransactions: 3500, ApprovedTransactions: 2835, TotalAmountUSD: 525000},
	}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_ListQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("warehouse is stopped"))

	source, err := NewSource(db, "segment_stats")
	require.NoError(t, err)

	_, err = source.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment query on segment_stats failed")
	assert.Contains(t, err.Error(), "warehouse is stopped")
}

func TestSource_ListScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(segmentColumns).
			AddRow("BR", "country", "baseline", "many", 3024, 540000.0))

	source, err := NewSource(db, "segment_stats")
	require.NoError(t, err)

	_, err = source.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan segment row")
}

func TestNewSource_RejectsTableNames(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"", "stats; DROP TABLE x", "a.b.c.d", "1table"} {
		_, err := NewSource(db, table)
		assert.Error(t, err, table)
	}
	_, err = NewSource(nil, "segment_stats")
	assert.EqualError(t, err, "database connection is nil")
}

func TestOpen(t *testing.T) {
	db, err := Open(domain.SourceProfile{Name: "local", Type: domain.SourceTypeDuckDB, DSN: ""})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	_, err = Open(domain.SourceProfile{Name: "odd", Type: "oracle"})
	assert.EqualError(t, err, `unsupported source type "oracle"`)
}
