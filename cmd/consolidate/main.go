package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"usagecli/internal/config"
	"usagecli/internal/exporter"
	"usagecli/internal/infrastructure"
	"usagecli/internal/pipeline"
	"usagecli/internal/reports"
	"usagecli/internal/storage"
	"usagecli/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

func main() {
	bucket := flag.String("bucket", "", "object-store bucket holding the usage reports (overrides config)")
	prefix := flag.String("prefix", "", "storage prefix to consolidate (defaults to the configured template)")
	startDate := flag.String("start-date", "", "inclusive start date (YYYY-MM-DD)")
	endDate := flag.String("end-date", "", "inclusive end date (YYYY-MM-DD)")
	days := flag.Int("days", 0, "consolidate only the last N days")
	output := flag.String("output", "consolidated_reports.csv", "output CSV path (single-prefix mode)")
	regionsFlag := flag.String("regions", "", "comma-separated regions for multi-region aggregation")
	xlsx := flag.String("xlsx", "", "also write a summary workbook to this .xlsx path")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if *bucket != "" {
		cfg.Storage.Bucket = *bucket
	}
	if cfg.Storage.Bucket == "" {
		logger.Error("No bucket configured; pass -bucket or set storage.bucket")
		os.Exit(1)
	}

	bounds, err := dateBounds(*startDate, *endDate, *days)
	if err != nil {
		logger.Error("Invalid date range", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := infrastructure.EnsureTraceID(context.Background())
	store := storage.NewFS(cfg.Storage.Root)
	csv := exporter.NewCSVWriter(logger)

	var dataset *domain.ConsolidatedDataset
	var artifact string

	if *regionsFlag != "" {
		regions := splitRegions(*regionsFlag)
		aggregator := reports.NewAggregator(store, cfg, csv, logger)
		artifact, dataset, err = aggregator.Aggregate(ctx, regions, bounds)
		if errors.Is(err, reports.ErrNoRegionData) {
			logger.Error("No data found in any requested region",
				slog.String("regions", *regionsFlag))
			os.Exit(1)
		}
		if err != nil {
			logger.Error("Aggregation failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		runner := pipeline.NewRunner(store, cfg, logger)

		runPrefix := *prefix
		if runPrefix == "" {
			runPrefix, err = cfg.RegionPrefix(config.DefaultRegion)
			if err != nil {
				// The account context could not be resolved from
				// configuration; this is a user-facing setup error.
				logger.Error("Cannot resolve report prefix", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}

		var summary domain.ConsolidateSummary
		dataset, summary, err = runner.Consolidate(ctx, runPrefix, bounds)
		if errors.Is(err, pipeline.ErrNoData) {
			reportMissingLayout(ctx, runner, runPrefix, logger)
			os.Exit(1)
		}
		if err != nil {
			logger.Error("Consolidation failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		artifact = *output
		if err := csv.WriteDataset(artifact, dataset); err != nil {
			logger.Error("Failed to write output", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Run summary",
			slog.Int("files", summary.Files),
			slog.Int("failed_files", summary.FailedFiles),
			slog.Int("input_rows", summary.InputRows),
			slog.Int("duplicates_removed", summary.DuplicatesRemoved))
	}

	if *xlsx != "" {
		if err := exporter.NewExcelWriter(logger).WriteWorkbook(*xlsx, dataset); err != nil {
			logger.Error("Failed to write workbook", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	from, to := dataset.DateRange()
	abs, _ := filepath.Abs(artifact)
	logger.Info("Consolidation complete",
		slog.Int("rows", len(dataset.Records)),
		slog.Int("users", dataset.UniqueUsers()),
		slog.String("date_from", from),
		slog.String("date_to", to),
		slog.String("output", abs))
}

// dateBounds combines -days with explicit -start-date/-end-date flags;
// the explicit flags win.
func dateBounds(startDate, endDate string, days int) (reports.DateBounds, error) {
	var bounds reports.DateBounds
	if days > 0 {
		bounds = reports.LastNDays(days, time.Now())
	}
	if startDate != "" {
		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return bounds, fmt.Errorf("invalid -start-date: %w", err)
		}
		bounds.Start = &start
	}
	if endDate != "" {
		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return bounds, fmt.Errorf("invalid -end-date: %w", err)
		}
		bounds.End = &end
	}
	return bounds, nil
}

func splitRegions(raw string) []string {
	var regions []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			regions = append(regions, r)
		}
	}
	return regions
}

// reportMissingLayout surfaces the layout diagnostics that let the user
// fix a wrong bucket or prefix themselves.
func reportMissingLayout(ctx context.Context, runner *pipeline.Runner, prefix string, logger *slog.Logger) {
	logger.Error("No matching report files found", slog.String("prefix", prefix))
	layout, err := runner.ValidateLayout(ctx)
	if err != nil {
		logger.Error("Layout validation unavailable", slog.String("error", err.Error()))
		return
	}
	if layout.Valid {
		logger.Info("Reports exist under the base prefix; check the date range or region",
			slog.String("search_path", layout.SearchPath),
			slog.Any("regions", layout.Regions),
			slog.Any("sample_files", layout.SampleFiles))
		return
	}
	logger.Info("Base prefix holds no reports",
		slog.String("search_path", layout.SearchPath),
		slog.Any("bucket_files", layout.BucketFiles))
}
