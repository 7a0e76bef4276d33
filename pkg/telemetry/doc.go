// Package telemetry mirrors error-level slog records into Parquet files
// for offline analysis.
package telemetry
