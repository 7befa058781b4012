package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// PebbleKV stores values in a local pebble database
type PebbleKV struct {
	db *pebble.DB
}

// OpenPebble opens or creates a pebble database at path
func OpenPebble(path string) (*PebbleKV, error) {
	return openPebble(path, &pebble.Options{})
}

// OpenPebbleFS opens a pebble database on the given filesystem, e.g. vfs.NewMem() in tests
func OpenPebbleFS(path string, fs vfs.FS) (*PebbleKV, error) {
	return openPebble(path, &pebble.Options{FS: fs})
}

func openPebble(path string, opts *pebble.Options) (*PebbleKV, error) {
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &PebbleKV{db: db}, nil
}

func (p *PebbleKV) Get(_ context.Context, key string) ([]byte, error) {
	value, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()

	// value is only valid until closer.Close
	return slices.Clone(value), nil
}

func (p *PebbleKV) Put(_ context.Context, key string, value []byte) error {
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}

func (p *PebbleKV) Delete(_ context.Context, key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete %s: %w", key, err)
	}
	return nil
}

func (p *PebbleKV) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
