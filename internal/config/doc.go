// Package config provides centralized configuration for the usage-report
// consolidation pipeline.
//
// Configuration is layered: struct-tag defaults, then environment
// variables with the USAGE_ prefix (e.g. USAGE_STORAGE_BUCKET), then an
// optional config.yaml. All relative paths are resolved to absolute at
// load time and the result is validated before use.
package config
