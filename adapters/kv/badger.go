// Package kv provides the durable client store backed by BadgerDB.
// Keys are flat strings; values are opaque bytes. Sessions are
// independent per ticker, so no cross-key transactions are offered.
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// Config holds configuration for the badger store.
// Required fields (on-disk mode):
// - Dir: directory for data files
// Optional fields:
// - InMemory: run without disk persistence (tests)
type Config struct {
	Dir      string
	InMemory bool
}

// NewConfigFromEnv builds a Config from STATE_DIR, defaulting to
// ./fingreat-state.
func NewConfigFromEnv() Config {
	dir := os.Getenv("STATE_DIR")
	if dir == "" {
		dir = "fingreat-state"
	}
	return Config{Dir: dir}
}

// BadgerStore implements KeyValueStore using BadgerDB v4
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
}

// Ensure BadgerStore implements the KeyValueStore interface
var _ repositories.KeyValueStore = (*BadgerStore)(nil)

// NewBadgerStore opens the store, creating the directory as needed
func NewBadgerStore(config Config, logger *zap.Logger) (*BadgerStore, error) {
	if !config.InMemory && config.Dir == "" {
		return nil, fmt.Errorf("badger store directory is required for on-disk mode")
	}

	opts := badger.DefaultOptions(config.Dir).WithLogger(nil)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Info("Durable store opened",
		zap.String("dir", config.Dir),
		zap.Bool("inMemory", config.InMemory))

	return &BadgerStore{db: db, logger: logger}, nil
}

// Get retrieves the value for a key
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, repositories.ErrKeyNotFound
	}
	return value, err
}

// Set stores a value, overwriting any existing one
func (s *BadgerStore) Set(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes a key. No error if the key does not exist.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Close releases the store
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
