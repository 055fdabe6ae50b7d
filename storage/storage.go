package storage

import (
	"context"
	"time"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Storage is a flat key/value blob store. Keys are slash separated.
type Storage interface {
	// Put stores data under key, replacing any previous object. Readers
	// observe either the old object or the complete new one.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object stored under key, or an error wrapping
	// ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the objects directly under prefix, sorted by key.
	// prefix names a "directory" ("a/b/"); keys below a further slash are
	// not returned.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
