// Package http provides the read-only data API the dashboard consumes:
// the latest consolidated dataset, identity resolution endpoints backed
// by the identity cache, health checks, and prometheus metrics.
package http
