package reports

import (
	"fmt"
	"strings"
	"time"
)

// reportDateLayout is how extracted dates render in the ReportDate column.
const reportDateLayout = "2006-01-02"

// DateTokenError reports that a filename does not carry a usable report
// date. The catalog treats it as "skip this file", never as a run failure.
type DateTokenError struct {
	Filename string
	Reason   string
}

func (e *DateTokenError) Error() string {
	return fmt.Sprintf("no report date in %q: %s", e.Filename, e.Reason)
}

// ExtractReportDate parses the report date embedded in a filename of the
// form <account>_<report_type>_<12-digit-token>_report.csv. The date is
// the first 8 digits of the underscore-delimited 12-digit token, read as
// YYYYMMDD. The first such token wins when several are present.
func ExtractReportDate(filename string) (time.Time, error) {
	parts := strings.Split(filename, "_")
	// Only interior segments are delimited by underscores on both sides.
	for i := 1; i < len(parts)-1; i++ {
		if !isDigits(parts[i]) || len(parts[i]) != 12 {
			continue
		}
		date, err := time.Parse("20060102", parts[i][:8])
		if err != nil {
			return time.Time{}, &DateTokenError{
				Filename: filename,
				Reason:   fmt.Sprintf("token %s has no valid calendar date", parts[i]),
			}
		}
		return date, nil
	}
	return time.Time{}, &DateTokenError{Filename: filename, Reason: "no 12-digit token"}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
