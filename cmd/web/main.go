package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/approval-atlas/pkg/server"
	"github.com/de-tools/approval-atlas/pkg/services/analysis"
	"github.com/de-tools/approval-atlas/pkg/services/anomaly"
	"github.com/de-tools/approval-atlas/pkg/services/config"
	"github.com/de-tools/approval-atlas/pkg/services/insight"
	"github.com/de-tools/approval-atlas/pkg/services/summary"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb/results"
	"github.com/de-tools/approval-atlas/pkg/store/duckdb/segments"
	"github.com/de-tools/approval-atlas/pkg/store/warehouse"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	sourcesPath string
	sourceName  string
	useSample   bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Approval Atlas",
		RunE:  runServer,
	}

	home, _ := os.UserHomeDir()
	defaultSources := fmt.Sprintf("%s/.atlas/sources.ini", home)

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML settings file")
	rootCmd.Flags().StringVar(&sourcesPath, "sources", defaultSources, "Path to the source profiles file")
	rootCmd.Flags().StringVar(&sourceName, "source", "", "Source profile analyzed by POST /api/v1/runs (default: local store)")
	rootCmd.Flags().BoolVar(&useSample, "sample", false, "Analyze the built-in sample segments by default")
	rootCmd.MarkFlagsMutuallyExclusive("source", "sample")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("no .env file loaded")
	}

	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return err
	}

	db, err := duckdb.NewDB(duckdb.Settings{
		DbPath: settings.Store.DBPath,
	})
	if err != nil {
		return fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	defer db.Close()

	resultStore, err := results.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create result store: %w", err)
	}

	var source analysis.SegmentSource
	switch {
	case useSample:
		source = analysis.NewSampleSource()
	case sourceName != "":
		registry, err := config.NewRegistry(sourcesPath)
		if err != nil {
			return fmt.Errorf("failed to create source registry: %w", err)
		}
		profile, err := registry.GetProfile(ctx, sourceName)
		if err != nil {
			return err
		}
		sourceDB, err := warehouse.Open(profile)
		if err != nil {
			return err
		}
		defer sourceDB.Close()

		src, err := warehouse.NewSource(sourceDB, profile.Table)
		if err != nil {
			return err
		}
		source = analysis.NewListerSource(profile.String(), src)
		logger.Info().Msgf("Reading segments from `%s`", profile)
	default:
		segmentStore, err := segments.NewStore(db)
		if err != nil {
			return fmt.Errorf("failed to create segment store: %w", err)
		}
		source = analysis.NewListerSource("duckdb:local", segmentStore)
	}

	ctrl, err := analysis.NewController(analysis.Dependencies{
		Source:     source,
		Store:      analysis.NewResultStore(resultStore),
		Detector:   anomaly.NewDetector(settings.DetectorSettings()),
		Ranker:     insight.NewRanker(settings.RankerSettings()),
		Aggregator: summary.NewAggregator(time.Now),
		Metrics:    analysis.NewMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return err
	}

	addr := settings.Server.Addr
	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")
	if host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}

	webAPI := server.NewWebAPI(logger, server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			Analysis: ctrl,
		},
	})

	return webAPI.Start()
}
