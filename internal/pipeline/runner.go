package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"usagecli/internal/config"
	"usagecli/internal/reports"
	"usagecli/internal/storage"
	"usagecli/pkg/contracts/domain"
)

// ErrNoData is returned when a run finds nothing to consolidate. Per-file
// failures never surface here; only a total absence of data does.
var ErrNoData = errors.New("no report data found")

// Runner wires catalog, ingestor, and consolidator into one synchronous
// consolidation run over a single prefix.
type Runner struct {
	store  storage.ObjectStore
	cfg    *config.Config
	logger *slog.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, cfg: cfg, logger: logger}
}

// Consolidate discovers, ingests, and consolidates every report under the
// prefix. Files that fail to ingest are counted and skipped. Returns
// ErrNoData when nothing parseable is there.
func (r *Runner) Consolidate(ctx context.Context, prefix string, bounds reports.DateBounds) (*domain.ConsolidatedDataset, domain.ConsolidateSummary, error) {
	catalog := reports.NewCatalog(r.store, r.cfg.Storage.Bucket, prefix, r.logger)
	files, err := catalog.List(ctx, bounds)
	if err != nil {
		// Discovery failures degrade to "no data" with a diagnostic.
		r.logger.WarnContext(ctx, "Catalog listing failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()))
		return nil, domain.ConsolidateSummary{}, ErrNoData
	}
	if len(files) == 0 {
		return nil, domain.ConsolidateSummary{}, ErrNoData
	}

	ingestor := reports.NewIngestor(r.store, r.cfg.Storage.Bucket, r.logger)
	var failed int
	batches := make([]domain.Batch, 0, len(files))
	for i, sf := range files {
		r.logger.InfoContext(ctx, "Fetching report",
			slog.Int("index", i+1),
			slog.Int("total", len(files)),
			slog.String("report_date", sf.Date.Format("2006-01-02")))
		batch, err := ingestor.FetchAndParse(ctx, sf)
		if err != nil {
			failed++
			continue
		}
		batches = append(batches, batch)
	}

	dataset, summary := reports.NewConsolidator(r.logger).Consolidate(ctx, batches)
	summary.FailedFiles = failed
	if dataset.Empty() {
		return nil, summary, ErrNoData
	}
	return dataset, summary, nil
}

// LayoutReport diagnoses whether the configured bucket/prefix actually
// holds the expected report layout. It exists for self-service correction
// of configuration errors, so it names the search path used and samples
// the keys actually present.
type LayoutReport struct {
	Valid       bool     `json:"valid"`
	SearchPath  string   `json:"search_path"`
	FileCount   int      `json:"file_count"`
	Regions     []string `json:"regions,omitempty"`
	SampleFiles []string `json:"sample_files,omitempty"`
	BucketFiles []string `json:"bucket_files,omitempty"`
}

// ValidateLayout lists the base prefix and reports the regions and sample
// files found there. When the prefix holds nothing, it samples the bucket
// root instead so the caller can see what is actually in the bucket.
func (r *Runner) ValidateLayout(ctx context.Context) (*LayoutReport, error) {
	basePrefix, err := r.cfg.BasePrefix()
	if err != nil {
		return nil, err
	}
	report := &LayoutReport{SearchPath: basePrefix}

	objects, err := r.store.List(ctx, r.cfg.Storage.Bucket, basePrefix)
	if err != nil {
		return nil, err
	}

	if len(objects) > 0 {
		report.Valid = true
		report.FileCount = len(objects)
		seen := make(map[string]struct{})
		for _, obj := range objects {
			rest := strings.TrimPrefix(obj.Key, basePrefix)
			if region, _, ok := strings.Cut(rest, "/"); ok && region != "" {
				if _, dup := seen[region]; !dup {
					seen[region] = struct{}{}
					report.Regions = append(report.Regions, region)
				}
			}
			if len(report.SampleFiles) < 3 {
				report.SampleFiles = append(report.SampleFiles, obj.Key)
			}
		}
		return report, nil
	}

	all, err := r.store.List(ctx, r.cfg.Storage.Bucket, "")
	if err != nil {
		return nil, err
	}
	for _, obj := range all {
		if len(report.BucketFiles) >= 10 {
			break
		}
		report.BucketFiles = append(report.BucketFiles, obj.Key)
	}
	return report, nil
}
