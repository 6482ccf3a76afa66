// Package badger provides a Badger-based implementation of the settings
// store.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/ExpressedAi/Sidechain/pkg/storage"
)

// Config holds configuration for BadgerStore.
type Config struct {
	Path              string
	SyncWrites        bool
	ValueLogFileSize  int64
	NumVersionsToKeep int
}

// BadgerStore implements storage.Store using Badger.
type BadgerStore struct {
	db     *badger.DB
	config *Config
}

// NewBadgerStore opens the database at the configured path.
func NewBadgerStore(config *Config) (*BadgerStore, error) {
	opts := badger.DefaultOptions(config.Path)
	opts.SyncWrites = config.SyncWrites
	if config.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = config.ValueLogFileSize
	}
	if config.NumVersionsToKeep > 0 {
		opts.NumVersionsToKeep = config.NumVersionsToKeep
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	return &BadgerStore{
		db:     db,
		config: config,
	}, nil
}

const settingKeyPrefix = "setting:"

func settingKey(key string) []byte {
	return []byte(settingKeyPrefix + key)
}

// GetSetting returns the payload stored under key.
func (s *BadgerStore) GetSetting(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(settingKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &storage.NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("badger: get %s: %w", key, err)
	}
	return value, nil
}

// SaveSetting writes the payload under key.
func (s *BadgerStore) SaveSetting(ctx context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(settingKey(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger: set %s: %w", key, err)
	}
	return nil
}

// RemoveSetting deletes the key. Absent keys are not an error.
func (s *BadgerStore) RemoveSetting(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(settingKey(key))
	})
	if err != nil {
		return fmt.Errorf("badger: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix via a prefix scan.
func (s *BadgerStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = settingKey(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			keys = append(keys, key[len(settingKeyPrefix):])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: scan %s: %w", prefix, err)
	}
	return keys, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
