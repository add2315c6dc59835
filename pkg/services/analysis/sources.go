package analysis

import (
	"context"
	"fmt"

	"github.com/de-tools/approval-atlas/pkg/adapters"
	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/de-tools/approval-atlas/pkg/models/store"
	"github.com/de-tools/approval-atlas/pkg/services/sample"
)

// SegmentSource supplies the segment period statistics of one run.
type SegmentSource interface {
	Name() string
	Segments(ctx context.Context) ([]domain.SegmentPeriodStat, error)
}

// SegmentLister is implemented by the DuckDB segment store and warehouse sources.
type SegmentLister interface {
	List(ctx context.Context) ([]store.SegmentStat, error)
}

type listerSource struct {
	name   string
	lister SegmentLister
}

func NewListerSource(name string, lister SegmentLister) SegmentSource {
	return &listerSource{name: name, lister: lister}
}

func (s *listerSource) Name() string {
	return s.name
}

func (s *listerSource) Segments(ctx context.Context) ([]domain.SegmentPeriodStat, error) {
	stats, err := s.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments from %s: %w", s.name, err)
	}
	return adapters.MapStoreSegmentStatsToDomain(stats), nil
}

type staticSource struct {
	name  string
	stats []domain.SegmentPeriodStat
}

// NewStaticSource serves a fixed set of rows, e.g. a request body.
func NewStaticSource(name string, stats []domain.SegmentPeriodStat) SegmentSource {
	return &staticSource{name: name, stats: stats}
}

func (s *staticSource) Name() string {
	return s.name
}

func (s *staticSource) Segments(context.Context) ([]domain.SegmentPeriodStat, error) {
	return s.stats, nil
}

func NewSampleSource() SegmentSource {
	return NewStaticSource("sample", sample.Segments())
}
