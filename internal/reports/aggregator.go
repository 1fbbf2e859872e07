package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"usagecli/internal/config"
	"usagecli/internal/exporter"
	"usagecli/internal/storage"
	"usagecli/pkg/contracts/domain"
)

// ErrNoRegionData is returned when every requested region yields nothing.
// A single empty region is only a warning.
var ErrNoRegionData = errors.New("no data in any region")

// Aggregator runs the consolidation pipeline per region and merges the
// results into one multi-region artifact.
type Aggregator struct {
	store  storage.ObjectStore
	cfg    *config.Config
	csv    *exporter.CSVWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator creates a region aggregator.
func NewAggregator(store storage.ObjectStore, cfg *config.Config, csv *exporter.CSVWriter, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		store:  store,
		cfg:    cfg,
		csv:    csv,
		logger: logger,
		now:    time.Now,
	}
}

// Aggregate consolidates each region sequentially, tags every record with
// its region provenance, concatenates the per-region datasets without
// cross-region deduplication (region is part of a record's identity), and
// writes the result under a timestamped filename so prior artifacts are
// never overwritten. Regions yielding no data are skipped with a warning;
// the run fails only when all of them are empty.
func (a *Aggregator) Aggregate(ctx context.Context, regions []string, bounds DateBounds) (string, *domain.ConsolidatedDataset, error) {
	combined := &domain.ConsolidatedDataset{}
	seenColumn := make(map[string]struct{})
	consolidator := NewConsolidator(a.logger)

	for _, region := range regions {
		label := a.cfg.RegionLabel(region)
		prefix, err := a.cfg.RegionPrefix(region)
		if err != nil {
			return "", nil, err
		}

		a.logger.InfoContext(ctx, "Processing region",
			slog.String("region", region),
			slog.String("region_name", label))

		catalog := NewCatalog(a.store, a.cfg.Storage.Bucket, prefix, a.logger)
		files, err := catalog.List(ctx, bounds)
		if err != nil {
			a.logger.WarnContext(ctx, "Region listing failed",
				slog.String("region", region),
				slog.String("error", err.Error()))
			continue
		}

		ingestor := NewIngestor(a.store, a.cfg.Storage.Bucket, a.logger)
		batches := make([]domain.Batch, 0, len(files))
		for _, sf := range files {
			batch, err := ingestor.FetchAndParse(ctx, sf)
			if err != nil {
				continue
			}
			batches = append(batches, batch)
		}

		dataset, _ := consolidator.Consolidate(ctx, batches)
		if dataset.Empty() {
			a.logger.WarnContext(ctx, "No data for region",
				slog.String("region", region),
				slog.String("region_name", label))
			continue
		}

		for i := range dataset.Records {
			dataset.Records[i].Region = region
			dataset.Records[i].RegionName = label
		}

		for _, col := range dataset.Columns {
			if _, ok := seenColumn[col]; !ok {
				seenColumn[col] = struct{}{}
				combined.Columns = append(combined.Columns, col)
			}
		}
		combined.Records = append(combined.Records, dataset.Records...)

		a.logger.InfoContext(ctx, "Region complete",
			slog.String("region", region),
			slog.Int("rows", len(dataset.Records)))
	}

	if combined.Empty() {
		return "", nil, ErrNoRegionData
	}

	for _, col := range []string{domain.ColumnRegion, domain.ColumnRegionName} {
		if _, ok := seenColumn[col]; !ok {
			seenColumn[col] = struct{}{}
			combined.Columns = append(combined.Columns, col)
		}
	}

	artifact := filepath.Join(a.cfg.Output.DataDir,
		fmt.Sprintf("%s_%s.csv", a.cfg.Output.MultiRegionPrefix, a.now().Format("20060102_150405")))
	if err := a.csv.WriteDataset(artifact, combined); err != nil {
		return "", nil, fmt.Errorf("failed to write multi-region artifact: %w", err)
	}

	a.logger.InfoContext(ctx, "Multi-region aggregation complete",
		slog.String("artifact", artifact),
		slog.Int("rows", len(combined.Records)),
		slog.Int("users", combined.UniqueUsers()))

	return artifact, combined, nil
}
