// Package storage provides the synchronous string-keyed key/value stores that
// back needle's persisted state. Values are opaque strings; callers own the
// serialization format.
//
// Three backends exist:
//   - file: one file per key under a directory, written atomically and guarded by
//     an advisory lockfile so several needle processes can share it
//   - sqlite: a single kv table in a SQLite database (pure Go driver)
//   - memory: process-local map, used by tests and --no-persist runs
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Common storage errors.
var (
	ErrInvalidKey     = errors.New("storage key cannot be empty")
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrClosed         = errors.New("storage is closed")
)

// KV is a synchronous string-keyed get/set primitive.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Locker is implemented by stores that can serialize a read-modify-write
// sequence across processes.
type Locker interface {
	Lock(key string) (unlock func(), err error)
}

// Options configures Open.
type Options struct {
	Backend   string
	Directory string
}

// KVCloser is a KV that holds resources.
type KVCloser interface {
	KV
	Close() error
}

// Open constructs the backend named in opts.
func Open(opts Options) (KVCloser, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileKV(opts.Directory)
	case BackendSQLite:
		return OpenSQLite(opts.Directory)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

func validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
