// Package storage persists the application state as one JSON value per
// collection key in a key-value backend.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a missing key
var ErrNotFound = errors.New("key not found")

// KV is a minimal key-value backend
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
