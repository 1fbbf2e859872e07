package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"usagecli/pkg/contracts/domain"
)

// ExcelWriter renders a consolidated dataset as a workbook with the raw
// rows plus a per-user totals sheet.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new Excel writer instance.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteWorkbook writes the dataset to an .xlsx file with "Data" and
// "Summary" sheets.
func (w *ExcelWriter) WriteWorkbook(filePath string, dataset *domain.ConsolidatedDataset) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const dataSheet = "Data"
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := writeRow(f, dataSheet, 1, dataset.Columns); err != nil {
		return err
	}
	for i := range dataset.Records {
		if err := writeRow(f, dataSheet, i+2, dataset.Row(i)); err != nil {
			return err
		}
	}

	if err := w.writeSummarySheet(f, dataset); err != nil {
		return err
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Workbook written",
		slog.String("file_path", filePath),
		slog.Int("rows", len(dataset.Records)))
	return nil
}

// writeSummarySheet adds per-user totals for every numeric metric column.
func (w *ExcelWriter) writeSummarySheet(f *excelize.File, dataset *domain.ConsolidatedDataset) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	metricCols := numericMetricColumns(dataset)
	header := append([]string{domain.ColumnUserID, "ActiveDays"}, metricCols...)
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}

	type userTotals struct {
		days   int
		totals map[string]int64
	}
	byUser := make(map[string]*userTotals)
	var order []string
	for _, record := range dataset.Records {
		totals, ok := byUser[record.UserID]
		if !ok {
			totals = &userTotals{totals: make(map[string]int64)}
			byUser[record.UserID] = totals
			order = append(order, record.UserID)
		}
		totals.days++
		for _, col := range metricCols {
			if raw, ok := record.Metrics[col]; ok {
				if v, err := parseCount(raw); err == nil {
					totals.totals[col] += v
				}
			}
		}
	}
	sort.Strings(order)

	for i, userID := range order {
		totals := byUser[userID]
		row := []string{userID, strconv.Itoa(totals.days)}
		for _, col := range metricCols {
			row = append(row, strconv.FormatInt(totals.totals[col], 10))
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// numericMetricColumns returns the metric columns that parse as counters
// in at least one record.
func numericMetricColumns(dataset *domain.ConsolidatedDataset) []string {
	numeric := make(map[string]bool)
	for _, record := range dataset.Records {
		for col, raw := range record.Metrics {
			if numeric[col] || raw == "" {
				continue
			}
			if _, err := parseCount(raw); err == nil {
				numeric[col] = true
			}
		}
	}
	var cols []string
	for _, col := range dataset.Columns {
		if numeric[col] {
			cols = append(cols, col)
		}
	}
	return cols
}

func parseCount(raw string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 10, 64)
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
