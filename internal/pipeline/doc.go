// Package pipeline orchestrates one consolidation run: catalog discovery,
// per-file ingestion, and deduplicating consolidation over a single
// storage prefix, plus layout diagnostics for misconfigured buckets.
package pipeline
