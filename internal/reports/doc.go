// Package reports implements the consolidation pipeline over daily
// usage-report extracts: filename date extraction, catalog discovery,
// per-file ingestion, (UserId, Date) deduplication with last-write-wins,
// and multi-region aggregation.
//
// Failure handling is deliberately tolerant: a file without a parseable
// date is skipped, a corrupt file yields an empty batch, and an empty
// region is only a warning. Only the total absence of data fails a run.
package reports
