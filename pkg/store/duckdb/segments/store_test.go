package segments

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/approval-atlas/pkg/models/store"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*sql.DB, Store) {
	t.Helper()
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: filepath.Join(t.TempDir(), "segments.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database connection: %v", err)
		}
	})

	s, err := NewStore(db)
	require.NoError(t, err)
	return db, s
}

func TestNewStore_NilDB(t *testing.T) {
	_, err := NewStore(nil)
	assert.EqualError(t, err, "database connection is nil")
}

func TestStore_AddAndList(t *testing.T) {
	_, s := setupStore(t)
	ctx := context.Background()

	stats := []store.SegmentStat{
		{SegmentKey: "BR", SegmentType: "country", Period: "current", TotalTransactions: 3500, ApprovedTransactions: 2835, TotalAmountUSD: 525000},
		{SegmentKey: "BR", SegmentType: "country", Period: "baseline", TotalTransactions: 3600, ApprovedTransactions: 3024, TotalAmountUSD: 540000},
		{SegmentKey: "$0-50", SegmentType: "amount_bucket", Period: "baseline", TotalTransactions: 2000, ApprovedTransactions: 1840, TotalAmountUSD: 50000},
	}
	require.NoError(t, s.Add(ctx, stats))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, stats[2], got[0])
	assert.Equal(t, stats[1], got[1])
	assert.Equal(t, stats[0], got[2])
}

func TestStore_AddReplacesExistingKey(t *testing.T) {
	_, s := setupStore(t)
	ctx := context.Background()

	row := store.SegmentStat{SegmentKey: "MX", SegmentType: "country", Period: "baseline", TotalTransactions: 100, ApprovedTransactions: 80, TotalAmountUSD: 1000}
	require.NoError(t, s.Add(ctx, []store.SegmentStat{row}))

	row.ApprovedTransactions = 90
	require.NoError(t, s.Add(ctx, []store.SegmentStat{row}))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(90), got[0].ApprovedTransactions)
}

func TestStore_AddEmpty(t *testing.T) {
	_, s := setupStore(t)
	require.NoError(t, s.Add(context.Background(), nil))
}

func TestStore_ImportCSV(t *testing.T) {
	_, s := setupStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "segments.csv")
	content := "segment_key,segment_type,period,total_transactions,approved_transactions,total_amount_usd\n" +
		"MX|Visa|Credit|Banorte,composite,baseline,1500,1230,262500\n" +
		"MX|Visa|Credit|Banorte,composite,current,1450,1160,253750\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	n, err := s.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "baseline", got[0].Period)
	assert.Equal(t, "MX|Visa|Credit|Banorte", got[0].SegmentKey)
	assert.Equal(t, int64(1230), got[0].ApprovedTransactions)
	assert.Equal(t, 253750.0, got[1].TotalAmountUSD)
}

func TestStore_ImportParquet(t *testing.T) {
	db, s := setupStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "segments.parquet")
	_, err := db.Exec(`COPY (
		SELECT 'US' AS segment_key, 'country' AS segment_type, 'baseline' AS period,
			10 AS total_transactions, 7 AS approved_transactions, 99.5 AS total_amount_usd
	) TO '` + path + `' (FORMAT PARQUET)`)
	require.NoError(t, err)

	n, err := s.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, store.SegmentStat{
		SegmentKey: "US", SegmentType: "country", Period: "baseline",
		TotalTransactions: 10, ApprovedTransactions: 7, TotalAmountUSD: 99.5,
	}, got[0])
}

func TestStore_ImportUnsupportedFile(t *testing.T) {
	_, s := setupStore(t)
	_, err := s.Import(context.Background(), "segments.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported segment file")
}

func TestStore_Clear(t *testing.T) {
	_, s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []store.SegmentStat{
		{SegmentKey: "BR", SegmentType: "country", Period: "baseline", TotalTransactions: 1, ApprovedTransactions: 1},
	}))
	require.NoError(t, s.Clear(ctx))

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
