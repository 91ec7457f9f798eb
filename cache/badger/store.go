// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package badger persists the durable answer cache in BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/verbatim/cache"
	"github.com/poiesic/verbatim/core"
)

// Store implements cache.Store on a Backend.
type Store struct {
	backend *Backend
	logger  *slog.Logger
}

var _ cache.Store = (*Store)(nil)

// NewStore creates a store on an open backend. The store owns the backend
// and closes it on Close.
func NewStore(backend *Backend) (*Store, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &Store{
		backend: backend,
		logger:  backend.logger,
	}, nil
}

// Open opens a badger directory and returns a store on it.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	backend, err := OpenBackend(dir, false, logger)
	if err != nil {
		return nil, err
	}
	return NewStore(backend)
}

// NewMemoryStore creates an in-memory store for testing.
func NewMemoryStore() (*Store, error) {
	backend, err := OpenBackend("", true, nil)
	if err != nil {
		return nil, err
	}
	return NewStore(backend)
}

// Load reads every entry. Undecodable records are skipped and logged.
func (s *Store) Load(ctx context.Context) (map[string]core.CacheEntry, error) {
	entries := make(map[string]core.CacheEntry)

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			err := item.Value(func(val []byte) error {
				e, err := UnmarshalCacheEntry(val)
				if err != nil {
					return err
				}
				entries[e.Key] = e
				return nil
			})
			if err != nil {
				s.logger.Warn("skipping corrupt cache record", "key", fmt.Sprintf("%x", item.Key()), "err", err)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache entries: %w", err)
	}
	return entries, nil
}

// Save replaces the stored snapshot with entries. Snapshots too large for a
// single transaction are written with a drop and a write batch.
func (s *Store) Save(ctx context.Context, entries map[string]core.CacheEntry) error {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteStale(tx, entries); err != nil {
			return err
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Set(makeEntryKey(e.Key), MarshalCacheEntry(e)); err != nil {
				return err
			}
		}
		return nil
	}, true)
	if errors.Is(err, badger.ErrTxnTooBig) {
		s.logger.Debug("cache snapshot exceeds transaction size, using write batch", "entries", len(entries))
		err = s.saveBatch(entries)
	}
	if err != nil {
		return fmt.Errorf("failed to save cache entries: %w", err)
	}
	return nil
}

// deleteStale removes stored entries that are absent from entries.
func deleteStale(tx *badger.Txn, entries map[string]core.CacheEntry) error {
	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		keep[string(makeEntryKey(e.Key))] = struct{}{}
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(entryPrefix)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var stale [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().KeyCopy(nil)
		if _, ok := keep[string(key)]; !ok {
			stale = append(stale, key)
		}
	}
	iter.Close()

	for _, key := range stale {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveBatch(entries map[string]core.CacheEntry) error {
	if err := s.backend.db.DropPrefix([]byte(entryPrefix)); err != nil {
		return err
	}
	wb := s.backend.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		if err := wb.Set(makeEntryKey(e.Key), MarshalCacheEntry(e)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Clear removes every stored entry.
func (s *Store) Clear(_ context.Context) error {
	if err := s.backend.db.DropPrefix([]byte(entryPrefix)); err != nil {
		return fmt.Errorf("failed to clear cache entries: %w", err)
	}
	return nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}
