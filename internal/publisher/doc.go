// Package publisher pushes transcoded artifacts from a working
// directory to the storage backend and resolves their public URLs.
//
// Publishing enumerates the working directory flat (non-recursive),
// uploads every file under a per-video namespace preserving filenames,
// and removes local copies as it goes. The playlist and thumbnail URLs
// are identified by the deterministic filenames the transcoder
// guarantees.
package publisher
