package commands

import (
	"context"
	"fmt"

	"github.com/de-tools/approval-atlas/pkg/adapters"
	"github.com/de-tools/approval-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/approval-atlas/pkg/services/anomaly"
	"github.com/de-tools/approval-atlas/pkg/services/sample"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb/segments"
	"github.com/spf13/cobra"
)

func NewSegmentsCmd(runtime *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Manage segment statistics in the local store",
	}

	cmd.AddCommand(newSegmentsImportCmd(runtime))
	cmd.AddCommand(newSegmentsListCmd(runtime))

	return cmd
}

func segmentStore(runtime *Runtime) (segments.Store, error) {
	db, err := runtime.DB()
	if err != nil {
		return nil, err
	}
	s, err := segments.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment store: %w", err)
	}
	return s, nil
}

func newSegmentsImportCmd(runtime *Runtime) *cobra.Command {
	var replace, useSample bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import segment statistics from a parquet or CSV file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if useSample == (len(args) == 1) {
				return fmt.Errorf("provide either a file or --sample")
			}

			ctx, cancel := runtime.Context(cmd.Context())
			defer cancel()

			s, err := segmentStore(runtime)
			if err != nil {
				return err
			}
			db, err := runtime.DB()
			if err != nil {
				return err
			}

			var imported int64
			err = duckdb.InTransaction(ctx, db, func(ctx context.Context) error {
				if replace {
					if err := s.Clear(ctx); err != nil {
						return err
					}
				}
				if useSample {
					rows := sample.Segments()
					imported = int64(len(rows))
					return s.Add(ctx, adapters.MapDomainSegmentStatsToStore(rows))
				}
				imported, err = s.Import(ctx, args[0])
				return err
			})
			if err != nil {
				return err
			}

			stored, err := s.List(ctx)
			if err != nil {
				return err
			}
			if err := anomaly.Validate(adapters.MapStoreSegmentStatsToDomain(stored)); err != nil {
				runtime.Logger.Warn().Err(err).Msg("stored segments will be rejected by analyze")
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows (%d stored)\n", imported, len(stored))
			return err
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Remove existing rows before importing")
	cmd.Flags().BoolVar(&useSample, "sample", false, "Import the built-in sample segments")

	return cmd
}

func newSegmentsListCmd(runtime *Runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored segment statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx, cancel := runtime.Context(cmd.Context())
			defer cancel()

			s, err := segmentStore(runtime)
			if err != nil {
				return err
			}
			stats, err := s.List(ctx)
			if err != nil {
				return err
			}
			return runtime.Reporter.HandleSegments(adapters.MapStoreSegmentStatsToDomain(stats), f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatTable), "Output format: table or json")

	return cmd
}
