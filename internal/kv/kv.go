// Package kv provides the process-local keyed store backing HearDiary's
// persisted state: the entry collection and the user preference record each
// live under a single well-known key.
//
// The store is backed by BadgerDB. In-memory mode runs the real engine without
// touching disk and is the default for tests.
package kv

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by [Store.Get] when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Options configures a [Store].
type Options struct {
	// Dir is the directory for the data files. Required unless InMemory is set.
	Dir string

	// InMemory runs the store without disk persistence. Useful for testing
	// with the real engine.
	InMemory bool
}

// Store is a minimal keyed byte store. All methods are safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open creates or opens a [Store] with the given options.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("kv: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	// Badger's default logger writes to stderr outside our slog pipeline.
	dbOpts = dbOpts.WithLogger(nil)

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("kv: open store: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the value stored under key, or [ErrNotFound].
func (s *Store) Get(key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: get %q: %w", key, err)
	}
	return val, nil
}

// Set writes value under key, replacing any previous value. The write is
// durable when Set returns.
func (s *Store) Set(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("kv: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("kv: delete %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying database. The store must not be used after
// Close returns.
func (s *Store) Close() error {
	return s.db.Close()
}
