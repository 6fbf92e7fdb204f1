// Package ingest coordinates the video ingestion pipeline.
//
// Each upload runs the sequence: create a provisional catalog record,
// transcode the raw file into HLS form in a per-record working
// directory, publish the produced artifacts to the storage backend,
// then finalize the record with its public URLs.
//
// Any failure before finalization deletes the provisional record so the
// catalog never exposes an unplayable video, and removes the working
// directory and the raw uploaded file. Concurrent ingestion runs are
// independent; a semaphore caps how many transcodes run at once.
package ingest
