package storage

import (
	"context"
	"errors"
)

// Key identifies a stored object as a folder/filename path within the
// backend's namespace.
type Key string

// ErrWrite indicates an I/O failure while persisting an object.
var ErrWrite = errors.New("storage write failed")

// Backend is the capability set required of an object storage
// implementation.
//
// Upload must be safe for concurrent use with distinct keys; behavior on
// colliding keys is implementation-defined overwrite. Delete is
// idempotent: deleting a key that does not exist is not an error.
// ResolveURL is a pure function from key to client-reachable URL and
// performs no I/O.
type Backend interface {
	Upload(ctx context.Context, content []byte, folder, filename string) (Key, error)
	Delete(ctx context.Context, key Key) error
	ResolveURL(key Key) string
}
