package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a stored object does not exist
var ErrNotFound = errors.New("object not found")

// StorageInterface defines the contract for media and snapshot storage.
// Names are slash-separated relative paths.
type StorageInterface interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}
