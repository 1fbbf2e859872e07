package reports

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usagecli/internal/shared/testutil"
	"usagecli/internal/storage"
	"usagecli/pkg/contracts/domain"
)

func sourceFile(key string, date time.Time) domain.SourceFile {
	return domain.SourceFile{Key: key, Date: date}
}

func TestIngestor_FetchAndParse(t *testing.T) {
	key := reportKey("202510200000")
	content := "UserId,Date,Chat_MessagesSent,Inline_SuggestionsCount\n" +
		"u1,2025-10-20,5,12\n" +
		"u2,2025-10-20,3,\n"

	store := storage.NewMemory()
	store.Put(testBucket, key, []byte(content))

	logger, _ := testutil.NewTestLogger(t)
	ing := NewIngestor(store, testBucket, logger)

	batch, err := ing.FetchAndParse(context.Background(), sourceFile(key, time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, []string{"UserId", "Date", "Chat_MessagesSent", "Inline_SuggestionsCount"}, batch.Columns)

	first := batch.Records[0]
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, "2025-10-20", first.Date)
	assert.Equal(t, "5", first.Metrics["Chat_MessagesSent"])
	assert.Equal(t, "2025-10-20", first.ReportDate, "ReportDate comes from the filename date")
	assert.Equal(t, "123456789012_by_user_analytic_202510200000_report.csv", first.SourceFile)
}

func TestIngestor_FetchAndParse_BOMHeader(t *testing.T) {
	key := reportKey("202510200000")
	store := storage.NewMemory()
	store.Put(testBucket, key, []byte("\ufeffUserId,Date\nu1,2025-10-20\n"))

	logger, _ := testutil.NewTestLogger(t)
	ing := NewIngestor(store, testBucket, logger)

	batch, err := ing.FetchAndParse(context.Background(), sourceFile(key, time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "u1", batch.Records[0].UserID)
}

func TestIngestor_FetchAndParse_SkipsRowsWithoutUserID(t *testing.T) {
	key := reportKey("202510200000")
	store := storage.NewMemory()
	store.Put(testBucket, key, []byte("UserId,Date\nu1,2025-10-20\n,2025-10-20\n"))

	logger, _ := testutil.NewTestLogger(t)
	ing := NewIngestor(store, testBucket, logger)

	batch, err := ing.FetchAndParse(context.Background(), sourceFile(key, time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Len(t, batch.Records, 1)
}

func TestIngestor_FetchAndParse_FetchFailure(t *testing.T) {
	store := storage.NewMemory()
	store.GetErr = errors.New("throttled")

	logger, handler := testutil.NewTestLogger(t)
	ing := NewIngestor(store, testBucket, logger)

	batch, err := ing.FetchAndParse(context.Background(), sourceFile(reportKey("202510200000"), time.Now()))
	assert.Error(t, err)
	assert.True(t, batch.Empty(), "a failed fetch yields an empty batch, not a crash")
	assert.True(t, handler.HasMessage(slog.LevelWarn, "Failed to download report"))
}

func TestIngestor_FetchAndParse_ParseFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "no UserId column", content: "SomeColumn,Other\n1,2\n"},
		{name: "ragged quoting", content: "UserId,Date\n\"u1,2025-10-20\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := reportKey("202510200000")
			store := storage.NewMemory()
			store.Put(testBucket, key, []byte(tt.content))

			logger, _ := testutil.NewTestLogger(t)
			ing := NewIngestor(store, testBucket, logger)

			batch, err := ing.FetchAndParse(context.Background(), sourceFile(key, time.Now()))
			assert.Error(t, err)
			assert.True(t, batch.Empty())
		})
	}
}
