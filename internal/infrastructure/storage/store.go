// Package storage provides the document-scoped key-value state store and
// its backends. All persisted plugin state (sequence collection, selected
// pointer, schema version) lives behind this interface.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// Store is a persistent string key-value store scoped to one document.
// Values survive session restarts. Implementations are safe for use from
// the single-writer message loop; they do not need cross-process locking.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes the value for key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
