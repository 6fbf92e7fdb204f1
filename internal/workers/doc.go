// Package workers provides worker pool sizing helpers that respect
// container CPU limits.
//
// The primary consumer is the ingestion orchestrator, which caps the
// number of concurrent ffmpeg transcodes to avoid starving the host.
package workers
