package reports

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"usagecli/internal/infrastructure"
	"usagecli/internal/storage"
	"usagecli/pkg/contracts/domain"
)

// DateBounds is an inclusive date-range filter. A nil bound is open.
type DateBounds struct {
	Start *time.Time
	End   *time.Time
}

// LastNDays returns bounds covering the N days up to now.
func LastNDays(n int, now time.Time) DateBounds {
	start := now.AddDate(0, 0, -n)
	return DateBounds{Start: &start, End: &now}
}

// Contains reports whether the date falls inside the bounds.
func (b DateBounds) Contains(date time.Time) bool {
	if b.Start != nil && date.Before(*b.Start) {
		return false
	}
	if b.End != nil && date.After(*b.End) {
		return false
	}
	return true
}

// Catalog discovers report files under one bucket/prefix.
type Catalog struct {
	store  storage.ObjectStore
	bucket string
	prefix string
	logger *slog.Logger
}

// NewCatalog creates a catalog over the given store location.
func NewCatalog(store storage.ObjectStore, bucket, prefix string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: store, bucket: bucket, prefix: prefix, logger: logger}
}

// List returns the report files under the catalog's prefix whose embedded
// date falls inside bounds, sorted ascending by that date. Objects whose
// filename yields no date are logged and skipped; a failed listing is
// returned as an error the caller treats as "no data".
//
// The returned order is load-bearing: consolidation resolves duplicate
// (UserId, Date) keys in favor of the file processed last.
func (c *Catalog) List(ctx context.Context, bounds DateBounds) ([]domain.SourceFile, error) {
	objects, err := c.store.List(ctx, c.bucket, c.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s/%s: %w", c.bucket, c.prefix, err)
	}

	var files []domain.SourceFile
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".csv") {
			continue
		}
		date, err := ExtractReportDate(path.Base(obj.Key))
		if err != nil {
			infrastructure.FilesSkipped.Inc()
			c.logger.DebugContext(ctx, "Skipping file without report date",
				slog.String("key", obj.Key),
				slog.String("reason", err.Error()))
			continue
		}
		if !bounds.Contains(date) {
			continue
		}
		files = append(files, domain.SourceFile{
			Key:          obj.Key,
			Date:         date,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Date.Before(files[j].Date)
	})

	infrastructure.FilesDiscovered.Add(float64(len(files)))
	c.logger.InfoContext(ctx, "Report files discovered",
		slog.String("prefix", c.prefix),
		slog.Int("count", len(files)))

	return files, nil
}
