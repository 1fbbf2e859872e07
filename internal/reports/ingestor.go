package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"usagecli/internal/infrastructure"
	"usagecli/internal/storage"
	"usagecli/pkg/contracts/domain"
)

// Ingestor downloads and parses one report file at a time.
type Ingestor struct {
	store  storage.ObjectStore
	bucket string
	logger *slog.Logger
}

// NewIngestor creates an ingestor reading from the given bucket.
func NewIngestor(store storage.ObjectStore, bucket string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{store: store, bucket: bucket, logger: logger}
}

// FetchAndParse downloads the source file and parses it into a batch.
// Every record is stamped with the ReportDate derived from the filename
// and the source filename itself. On any fetch or parse failure it
// returns an empty batch together with the error; a single corrupt file
// must not stop the rest of the run.
func (ing *Ingestor) FetchAndParse(ctx context.Context, sf domain.SourceFile) (domain.Batch, error) {
	batch := domain.Batch{Source: sf}

	data, err := ing.store.Get(ctx, ing.bucket, sf.Key)
	if err != nil {
		infrastructure.IngestFailures.Inc()
		ing.logger.WarnContext(ctx, "Failed to download report",
			slog.String("key", sf.Key),
			slog.String("error", err.Error()))
		return batch, fmt.Errorf("failed to download %s: %w", sf.Key, err)
	}

	columns, records, err := parseReport(data, sf)
	if err != nil {
		infrastructure.IngestFailures.Inc()
		ing.logger.WarnContext(ctx, "Failed to parse report",
			slog.String("key", sf.Key),
			slog.String("error", err.Error()))
		return batch, fmt.Errorf("failed to parse %s: %w", sf.Key, err)
	}

	batch.Columns = columns
	batch.Records = records
	infrastructure.RowsIn.Add(float64(len(records)))

	ing.logger.InfoContext(ctx, "Report ingested",
		slog.String("key", sf.Key),
		slog.String("report_date", sf.Date.Format(reportDateLayout)),
		slog.Int("rows", len(records)))

	return batch, nil
}

// parseReport reads a header-plus-rows CSV document into activity records.
func parseReport(data []byte, sf domain.SourceFile) ([]string, []domain.ActivityRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("missing header row: %w", err)
	}
	// Some extracts carry a UTF-8 BOM on the first column name.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	columnIndex := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		header[i] = name
		if name == "" {
			continue
		}
		columnIndex[name] = i
		columns = append(columns, name)
	}
	if _, ok := columnIndex[domain.ColumnUserID]; !ok {
		return nil, nil, fmt.Errorf("report has no %s column", domain.ColumnUserID)
	}

	reportDate := sf.Date.Format(reportDateLayout)
	sourceFile := path.Base(sf.Key)

	var records []domain.ActivityRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", line, err)
		}

		record := domain.ActivityRecord{
			Metrics:    make(map[string]string, len(columns)),
			ReportDate: reportDate,
			SourceFile: sourceFile,
		}
		for _, name := range columns {
			idx := columnIndex[name]
			if idx >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[idx])
			switch name {
			case domain.ColumnUserID:
				record.UserID = value
			case domain.ColumnDate:
				record.Date = value
			default:
				record.Metrics[name] = value
			}
		}
		if record.UserID == "" {
			continue
		}
		records = append(records, record)
	}

	return columns, records, nil
}
