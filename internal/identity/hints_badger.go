// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const hintKeyPrefix = "hint:"

type hintRecord struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BadgerHintStore implements HintStore on BadgerDB.
type BadgerHintStore struct {
	db    *badger.DB
	owned bool
}

// OpenBadgerHintStore opens a BadgerDB at path, or an in-memory instance when
// path is empty. The store owns the database and closes it on Close.
func OpenBadgerHintStore(path string) (*BadgerHintStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for hints: %w", err)
	}
	return &BadgerHintStore{db: db, owned: true}, nil
}

// NewBadgerHintStore wraps an existing database. Close leaves db open.
func NewBadgerHintStore(db *badger.DB) *BadgerHintStore {
	return &BadgerHintStore{db: db}
}

// Get returns the stored value or ErrHintNotFound.
func (s *BadgerHintStore) Get(key string) (string, error) {
	var rec hintRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(hintKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrHintNotFound
		}
		if err != nil {
			return fmt.Errorf("get hint: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return "", err
	}
	return rec.Value, nil
}

// Set stores value under key.
func (s *BadgerHintStore) Set(key, value string) error {
	data, err := json.Marshal(hintRecord{Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal hint: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(hintKeyPrefix+key), data); err != nil {
			return fmt.Errorf("set hint: %w", err)
		}
		return nil
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *BadgerHintStore) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(hintKeyPrefix + key))
	})
}

// Close closes the database if the store opened it.
func (s *BadgerHintStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
