package store

import (
	"database/sql"
	"fmt"
)

type SegmentStat struct {
	SegmentKey           string
	SegmentType          string
	Period               string
	TotalTransactions    int64
	ApprovedTransactions int64
	TotalAmountUSD       float64
}

// ScanSegmentStats reads rows selecting the segment_stats columns in
// declaration order.
func ScanSegmentStats(rows *sql.Rows) ([]SegmentStat, error) {
	var stats []SegmentStat
	for rows.Next() {
		var stat SegmentStat
		if err := rows.Scan(
			&stat.SegmentKey,
			&stat.SegmentType,
			&stat.Period,
			&stat.TotalTransactions,
			&stat.ApprovedTransactions,
			&stat.TotalAmountUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan segment row: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("segment rows iteration error: %w", err)
	}
	return stats, nil
}
