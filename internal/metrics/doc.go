// Package metrics defines Prometheus metrics for the StreamHive backend.
//
// Metrics cover:
//   - HTTP request counts, durations, and in-flight gauges
//   - Database query counts and durations
//   - Ingestion pipeline stage outcomes and timings (transcode, publish)
//   - Storage backend upload/delete operations
//
// All metrics are registered via promauto at package initialization and
// exposed on the dedicated metrics listener.
package metrics
