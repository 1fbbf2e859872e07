package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usagecli/internal/shared/testutil"
	"usagecli/pkg/contracts/domain"
)

func sampleDataset() *domain.ConsolidatedDataset {
	return &domain.ConsolidatedDataset{
		Columns: []string{
			domain.ColumnUserID, domain.ColumnDate, "Chat_Messages",
			domain.ColumnReportDate, domain.ColumnSourceFile,
		},
		Records: []domain.ActivityRecord{
			{
				UserID:     "user-a",
				Date:       "2025-10-20",
				Metrics:    map[string]string{"Chat_Messages": "5"},
				ReportDate: "2025-10-20",
				SourceFile: "report_202510200000_1.csv",
			},
			{
				UserID:     "user-b",
				Date:       "2025-10-21",
				Metrics:    map[string]string{"Chat_Messages": "1,204"},
				ReportDate: "2025-10-21",
				SourceFile: "report_202510210000_1.csv",
			},
		},
	}
}

func TestWriteDataset_RoundTrip(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "out", "consolidated_reports.csv")

	require.NoError(t, NewCSVWriter(logger).WriteDataset(path, sampleDataset()))

	loaded, err := ReadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, sampleDataset().Columns, loaded.Columns, "BOM must not leak into the first column name")
	require.Len(t, loaded.Records, 2)
	assert.Equal(t, "user-a", loaded.Records[0].UserID)
	assert.Equal(t, "2025-10-20", loaded.Records[0].Date)
	assert.Equal(t, "5", loaded.Records[0].Metrics["Chat_Messages"])
	assert.Equal(t, "report_202510210000_1.csv", loaded.Records[1].SourceFile)
}

func TestWriteCSV_BOMPrefix(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "with_bom.csv")

	err := NewCSVWriter(logger).WriteCSV(path, WriteOptions{
		Headers:   []string{"UserId"},
		Records:   [][]string{{"user-a"}},
		BOMPrefix: true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
}

func TestWriteCSV_NoBOM(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "plain.csv")

	err := NewCSVWriter(logger).WriteCSV(path, WriteOptions{
		Headers: []string{"UserId"},
		Records: [][]string{{"user-a"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "UserId\nuser-a\n", string(data))
}

func TestReadDataset_MissingFile(t *testing.T) {
	_, err := ReadDataset(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
