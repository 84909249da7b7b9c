package ports

import (
	"context"
	"errors"
	"io"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// ErrObjectNotFound is returned by ObjectStore.Open for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore defines where tool outputs are persisted.
type ObjectStore interface {
	// Put uploads the local file at path under key and returns its public location.
	// Putting the same key twice overwrites the first object.
	Put(ctx context.Context, key, path, contentType string) (domain.StoredArtifact, error)

	// Open returns the content stored under key.
	// Returns ErrObjectNotFound if the key does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ContentCache defines a byte cache keyed by string.
type ContentCache interface {
	// Get returns the cached value. ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}
