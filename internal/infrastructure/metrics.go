package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline and identity-cache counters, registered on the default
// prometheus registry and served by the data API's /metrics endpoint.
var (
	FilesDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_files_discovered_total",
		Help: "Report files matched by the catalog",
	})
	FilesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_files_skipped_total",
		Help: "Store objects skipped because no report date could be extracted",
	})
	IngestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_ingest_failures_total",
		Help: "Report files that failed to download or parse",
	})
	RowsIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_rows_in_total",
		Help: "Rows read from report files before deduplication",
	})
	RowsOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_rows_out_total",
		Help: "Rows emitted into consolidated datasets",
	})
	DuplicatesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_duplicates_removed_total",
		Help: "Rows dropped by (UserId, Date) deduplication",
	})

	IdentityCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_identity_cache_hits_total",
		Help: "Identity lookups served from the fresh cache",
	})
	IdentityCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_identity_cache_misses_total",
		Help: "Identity lookups that required a directory call",
	})
	IdentityFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_identity_fallbacks_total",
		Help: "Identity lookups that degraded to a synthesized fallback",
	})
	DirectoryCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_directory_calls_total",
		Help: "Calls issued to the identity directory",
	})
)
