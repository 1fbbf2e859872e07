// Package domain defines the shared data contracts of the usage-report
// consolidation pipeline: discovered source files, activity records and
// their consolidated form, and resolved identity records.
//
// The types here are transport-free; they are produced and consumed by
// the internal pipeline packages and rendered by the exporters.
package domain
