// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package identity

import (
	"errors"
	"fmt"
	"sync"
)

// Well-known hint keys.
const (
	KeyCityHint         = "city_hint"
	KeyAnalyticsConsent = "analytics_consent_v1"
	KeyGAClientID       = "ga_client_id"
)

// ErrHintNotFound is returned by HintStore.Get for an unknown key.
var ErrHintNotFound = errors.New("hint not found")

// HintStore is a small string-keyed local cache.
type HintStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// StoreType selects a HintStore implementation.
type StoreType string

const (
	StoreMemory StoreType = "memory"
	StoreBadger StoreType = "badger"
)

// OpenHintStore opens the configured store. A badger store with an empty
// path runs in memory.
func OpenHintStore(storeType StoreType, path string) (HintStore, error) {
	switch storeType {
	case StoreMemory, "":
		return NewMemoryHintStore(), nil
	case StoreBadger:
		return OpenBadgerHintStore(path)
	default:
		return nil, fmt.Errorf("unknown hint store type %q", storeType)
	}
}

// MemoryHintStore is a map-backed HintStore. The zero value is not usable;
// call NewMemoryHintStore.
type MemoryHintStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryHintStore creates an empty in-memory store.
func NewMemoryHintStore() *MemoryHintStore {
	return &MemoryHintStore{values: make(map[string]string)}
}

func (m *MemoryHintStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrHintNotFound
	}
	return v, nil
}

func (m *MemoryHintStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryHintStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryHintStore) Close() error { return nil }
