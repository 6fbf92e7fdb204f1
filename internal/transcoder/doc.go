// Package transcoder converts uploaded video files into HLS form using
// FFmpeg.
//
// Each transcode is a single external-process invocation producing a
// flat segmented playlist (master.m3u8, 10 second segments) plus a
// representative thumbnail image (thumbnail.png) inside a caller-owned
// working directory.
//
// Process execution goes through the Runner port so the orchestration
// logic can be tested with a fake runner. FFmpeg must be installed and
// available in the system PATH for the production runner.
package transcoder
