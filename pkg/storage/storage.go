// Package storage persists downloaded asset files and node snapshots
package storage

import (
	"context"
)

// Storage is a flat key value store. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Write stores data with the given key, overwriting existing data.
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves data for the given key.
	// Returns os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether data is stored for the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns keys matching the given prefix, sorted descending.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data for the given key, missing keys are no error.
	Delete(ctx context.Context, key string) error

	Close() error
}
