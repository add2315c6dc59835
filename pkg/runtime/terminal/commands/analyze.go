package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/approval-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/approval-atlas/pkg/services/analysis"
	"github.com/de-tools/approval-atlas/pkg/services/anomaly"
	"github.com/de-tools/approval-atlas/pkg/services/insight"
	"github.com/de-tools/approval-atlas/pkg/services/summary"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb/results"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb/segments"
	"github.com/de-tools/approval-atlas/pkg/store/warehouse"
	"github.com/spf13/cobra"
)

type AnalyzeCmd struct {
	runtime *Runtime
	sample  bool
	source  string
	format  string
	seed    string
	topN    int
	noSave  bool
}

func NewAnalyzeCmd(runtime *Runtime) *cobra.Command {
	ac := &AnalyzeCmd{runtime: runtime}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Detect approval rate anomalies and rank the top insights",
		Long: "Compares the baseline period against the current period for every segment,\n" +
			"flags statistically significant shifts and reports the most actionable ones.\n" +
			"Segments are read from the local store unless --sample or --source is given.",
		RunE: ac.run,
	}

	cmd.Flags().BoolVar(&ac.sample, "sample", false, "Analyze the built-in sample segments")
	cmd.Flags().StringVar(&ac.source, "source", "", "Name of a source profile to read segments from")
	cmd.Flags().StringVarP(&ac.format, "format", "f", string(export.FormatTable), "Output format: table or json")
	cmd.Flags().StringVar(&ac.seed, "seed", "", "Seed for deterministic insight ids (overrides ids.seed)")
	cmd.Flags().IntVar(&ac.topN, "top", 0, "Number of insights to report (overrides ranking.top_n)")
	cmd.Flags().BoolVar(&ac.noSave, "no-save", false, "Do not persist the run in the local store")
	cmd.MarkFlagsMutuallyExclusive("sample", "source")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(ac.format)
	if err != nil {
		return err
	}

	settings, err := ac.runtime.Settings()
	if err != nil {
		return err
	}
	if ac.seed != "" {
		settings.IDs.Seed = ac.seed
	}
	if ac.topN > 0 {
		settings.Ranking.TopN = ac.topN
	}

	ctx, cancel := ac.runtime.Context(cmd.Context())
	defer cancel()

	source, closeSource, err := ac.segmentSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	deps := analysis.Dependencies{
		Source:     source,
		Detector:   anomaly.NewDetector(settings.DetectorSettings()),
		Ranker:     insight.NewRanker(settings.RankerSettings()),
		Aggregator: summary.NewAggregator(time.Now),
	}
	if !ac.noSave {
		db, err := ac.runtime.DB()
		if err != nil {
			return err
		}
		resultStore, err := results.NewStore(db)
		if err != nil {
			return fmt.Errorf("failed to create result store: %w", err)
		}
		deps.Store = analysis.NewResultStore(resultStore)
	}

	ctrl, err := analysis.NewController(deps)
	if err != nil {
		return err
	}

	result, err := ctrl.Run(ctx, analysis.Request{})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	return ac.runtime.Reporter.Handle(result, format)
}

func (ac *AnalyzeCmd) segmentSource(ctx context.Context) (analysis.SegmentSource, func(), error) {
	noop := func() {}

	if ac.sample {
		return analysis.NewSampleSource(), noop, nil
	}

	if ac.source == "" {
		db, err := ac.runtime.DB()
		if err != nil {
			return nil, noop, err
		}
		segmentStore, err := segments.NewStore(db)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create segment store: %w", err)
		}
		return analysis.NewListerSource("duckdb:local", segmentStore), noop, nil
	}

	registry, err := ac.runtime.Registry()
	if err != nil {
		return nil, noop, err
	}
	profile, err := registry.GetProfile(ctx, ac.source)
	if err != nil {
		return nil, noop, err
	}

	db, err := warehouse.Open(profile)
	if err != nil {
		return nil, noop, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			ac.runtime.Logger.Warn().Err(err).Str("source", profile.String()).Msg("failed to close source connection")
		}
	}

	src, err := warehouse.NewSource(db, profile.Table)
	if err != nil {
		closeDB()
		return nil, noop, err
	}
	return analysis.NewListerSource(profile.String(), src), closeDB, nil
}

