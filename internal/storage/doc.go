// Package storage defines the object-store capability the pipeline reads
// usage reports from, together with two implementations: a filesystem
// store serving a local mirror of the report layout, and an in-memory
// store for tests.
package storage
