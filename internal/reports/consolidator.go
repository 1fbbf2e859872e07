package reports

import (
	"context"
	"log/slog"
	"sort"

	"usagecli/internal/infrastructure"
	"usagecli/pkg/contracts/domain"
)

// Consolidator merges report batches into one deduplicated dataset.
type Consolidator struct {
	logger *slog.Logger
}

// NewConsolidator creates a consolidator.
func NewConsolidator(logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consolidator{logger: logger}
}

// Consolidate concatenates the batches in the order supplied (the
// catalog's date-ascending order), deduplicates on (UserId, Date) keeping
// the record processed last, and sorts ascending by (ReportDate, UserId).
// An empty input yields an empty dataset, not an error; the caller decides
// what "no data" means for the run.
func (c *Consolidator) Consolidate(ctx context.Context, batches []domain.Batch) (*domain.ConsolidatedDataset, domain.ConsolidateSummary) {
	summary := domain.ConsolidateSummary{}

	var all []domain.ActivityRecord
	var columns []string
	seenColumn := make(map[string]struct{})

	for _, batch := range batches {
		if batch.Empty() {
			continue
		}
		summary.Files++
		summary.InputRows += len(batch.Records)
		all = append(all, batch.Records...)

		// Column union preserves first-seen order across batches.
		for _, col := range batch.Columns {
			if _, ok := seenColumn[col]; !ok {
				seenColumn[col] = struct{}{}
				columns = append(columns, col)
			}
		}
	}

	for _, col := range []string{domain.ColumnReportDate, domain.ColumnSourceFile} {
		if _, ok := seenColumn[col]; !ok {
			seenColumn[col] = struct{}{}
			columns = append(columns, col)
		}
	}

	dataset := &domain.ConsolidatedDataset{Columns: columns}
	if len(all) == 0 {
		c.logger.WarnContext(ctx, "No report data to consolidate")
		return dataset, summary
	}

	// Keep the last occurrence of each key, at its last position.
	lastIndex := make(map[string]int, len(all))
	for i, record := range all {
		lastIndex[record.DedupKey()] = i
	}
	deduped := make([]domain.ActivityRecord, 0, len(lastIndex))
	for i, record := range all {
		if lastIndex[record.DedupKey()] == i {
			deduped = append(deduped, record)
		}
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].ReportDate != deduped[j].ReportDate {
			return deduped[i].ReportDate < deduped[j].ReportDate
		}
		return deduped[i].UserID < deduped[j].UserID
	})

	dataset.Records = deduped
	summary.OutputRows = len(deduped)
	summary.DuplicatesRemoved = summary.InputRows - summary.OutputRows

	infrastructure.RowsOut.Add(float64(summary.OutputRows))
	infrastructure.DuplicatesRemoved.Add(float64(summary.DuplicatesRemoved))

	if summary.DuplicatesRemoved > 0 {
		c.logger.InfoContext(ctx, "Duplicate rows removed",
			slog.Int("removed", summary.DuplicatesRemoved))
	}
	c.logger.InfoContext(ctx, "Consolidation complete",
		slog.Int("files", summary.Files),
		slog.Int("input_rows", summary.InputRows),
		slog.Int("output_rows", summary.OutputRows),
		slog.Int("columns", len(dataset.Columns)))

	return dataset, summary
}
