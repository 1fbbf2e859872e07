// Package exporter renders consolidated datasets as durable artifacts:
// CSV files (the pipeline's primary output, readable back by the data
// API) and Excel workbooks with per-user totals.
package exporter
