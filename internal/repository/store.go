package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a Store when the key has never been written or was deleted.
// It is distinct from a key holding an empty collection.
var ErrKeyNotFound = errors.New("key not found in store")

// Entry is one key and its serialized value.
type Entry struct {
	Key   string
	Value []byte
}

// Store is a byte-level key-value store. Put writes all entries atomically.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, entries ...Entry) error
	Delete(ctx context.Context, key string) error
}
