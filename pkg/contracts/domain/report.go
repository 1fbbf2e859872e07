package domain

import (
	"time"
)

// Well-known report columns. Every other column is treated as a named
// metric counter and carried through untouched.
const (
	ColumnUserID     = "UserId"
	ColumnDate       = "Date"
	ColumnReportDate = "ReportDate"
	ColumnSourceFile = "SourceFile"
	ColumnRegion     = "Region"
	ColumnRegionName = "RegionName"
)

// RequiredColumns are the columns every usage report must carry.
var RequiredColumns = []string{
	ColumnUserID,
	ColumnDate,
	"Chat_MessagesSent",
	"Chat_AICodeLines",
	"Inline_SuggestionsCount",
	"Inline_AcceptanceCount",
}

// SourceFile describes one report object discovered in the store.
// The Date is extracted from the filename token at catalog time.
type SourceFile struct {
	Key          string
	Date         time.Time
	Size         int64
	LastModified time.Time
}

// ActivityRecord is a single row of a daily usage report.
// Metrics holds every column other than UserId and Date; a key absent
// from the map means the source file did not carry that column (missing,
// not zero).
type ActivityRecord struct {
	UserID     string
	Date       string
	Metrics    map[string]string
	ReportDate string
	Region     string
	RegionName string
	SourceFile string
}

// DedupKey returns the identity under which records are deduplicated.
// When the report has no Date column the report date stands in for it.
func (r ActivityRecord) DedupKey() string {
	date := r.Date
	if date == "" {
		date = r.ReportDate
	}
	return r.UserID + "\x00" + date
}

// Value returns the record's value for the named column, and whether the
// record carries that column at all.
func (r ActivityRecord) Value(column string) (string, bool) {
	switch column {
	case ColumnUserID:
		return r.UserID, true
	case ColumnDate:
		if r.Date == "" {
			return "", false
		}
		return r.Date, true
	case ColumnReportDate:
		return r.ReportDate, true
	case ColumnSourceFile:
		if r.SourceFile == "" {
			return "", false
		}
		return r.SourceFile, true
	case ColumnRegion:
		if r.Region == "" {
			return "", false
		}
		return r.Region, true
	case ColumnRegionName:
		if r.RegionName == "" {
			return "", false
		}
		return r.RegionName, true
	}
	v, ok := r.Metrics[column]
	return v, ok
}

// Batch is the parse result of one report file.
type Batch struct {
	Source  SourceFile
	Columns []string
	Records []ActivityRecord
}

// Empty reports whether the batch carries no rows.
func (b Batch) Empty() bool {
	return len(b.Records) == 0
}

// ConsolidatedDataset is the deduplicated, sorted union of report batches.
//
// Invariants: at most one record per (UserId, Date) pair, and records are
// sorted ascending by (ReportDate, UserId).
type ConsolidatedDataset struct {
	Columns []string
	Records []ActivityRecord
}

// Empty reports whether the dataset carries no rows.
func (d *ConsolidatedDataset) Empty() bool {
	return d == nil || len(d.Records) == 0
}

// Row renders record i as CSV cells in column order. Missing values
// render as empty cells.
func (d *ConsolidatedDataset) Row(i int) []string {
	row := make([]string, len(d.Columns))
	for j, col := range d.Columns {
		row[j], _ = d.Records[i].Value(col)
	}
	return row
}

// UniqueUsers returns the number of distinct user ids in the dataset.
func (d *ConsolidatedDataset) UniqueUsers() int {
	seen := make(map[string]struct{}, len(d.Records))
	for _, r := range d.Records {
		seen[r.UserID] = struct{}{}
	}
	return len(seen)
}

// DateRange returns the smallest and largest ReportDate in the dataset.
func (d *ConsolidatedDataset) DateRange() (min, max string) {
	for _, r := range d.Records {
		if min == "" || r.ReportDate < min {
			min = r.ReportDate
		}
		if r.ReportDate > max {
			max = r.ReportDate
		}
	}
	return min, max
}

// ConsolidateSummary reports what a consolidation run did.
type ConsolidateSummary struct {
	Files             int `json:"files"`
	FailedFiles       int `json:"failed_files"`
	InputRows         int `json:"input_rows"`
	OutputRows        int `json:"output_rows"`
	DuplicatesRemoved int `json:"duplicates_removed"`
}
