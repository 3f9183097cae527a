package repositories

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when a key has no stored value
var ErrKeyNotFound = errors.New("store: key not found")

// KeyValueStore abstracts the durable client store used to persist
// session state across reloads. Entries are independent; there are no
// transactional guarantees.
type KeyValueStore interface {
	// Get retrieves the value for a key. Returns ErrKeyNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value, overwriting any existing one
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key string) error
	// Close releases any resources held by the store
	Close() error
}
