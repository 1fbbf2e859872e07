// Package infrastructure provides cross-cutting runtime concerns:
// structured JSON logging with trace-id propagation through contexts,
// and the prometheus counters the pipeline and identity cache report to.
package infrastructure
