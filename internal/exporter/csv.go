package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"usagecli/pkg/contracts/domain"
)

// CSVWriter writes consolidated datasets as CSV artifacts.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes rows to a CSV file, creating parent directories.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// BOM helps Excel recognize UTF-8.
	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

// WriteDataset writes a consolidated dataset as a CSV artifact.
func (w *CSVWriter) WriteDataset(filePath string, dataset *domain.ConsolidatedDataset) error {
	records := make([][]string, len(dataset.Records))
	for i := range dataset.Records {
		records[i] = dataset.Row(i)
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   dataset.Columns,
		Records:   records,
		BOMPrefix: true,
	})
}

// ReadDataset loads a previously written artifact back into a dataset.
// The data API serves artifacts through this.
func ReadDataset(filePath string) (*domain.ConsolidatedDataset, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("artifact has no header row: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	dataset := &domain.ConsolidatedDataset{Columns: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact row: %w", err)
		}
		record := domain.ActivityRecord{Metrics: make(map[string]string)}
		for i, col := range header {
			if i >= len(row) {
				break
			}
			switch col {
			case domain.ColumnUserID:
				record.UserID = row[i]
			case domain.ColumnDate:
				record.Date = row[i]
			case domain.ColumnReportDate:
				record.ReportDate = row[i]
			case domain.ColumnSourceFile:
				record.SourceFile = row[i]
			case domain.ColumnRegion:
				record.Region = row[i]
			case domain.ColumnRegionName:
				record.RegionName = row[i]
			default:
				record.Metrics[col] = row[i]
			}
		}
		dataset.Records = append(dataset.Records, record)
	}
	return dataset, nil
}
