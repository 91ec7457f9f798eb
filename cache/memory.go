package cache

import (
	"context"
	"maps"
	"sync"

	"github.com/poiesic/verbatim/core"
)

// MemoryStore keeps the durable snapshot in memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]core.CacheEntry
	saves   int
	closed  bool

	// LoadErr, when set, is returned by Load.
	LoadErr error
	// SaveErr, when set, is returned by Save.
	SaveErr error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store seeded with entries. entries may be nil.
func NewMemoryStore(entries map[string]core.CacheEntry) *MemoryStore {
	if entries == nil {
		entries = make(map[string]core.CacheEntry)
	}
	return &MemoryStore{entries: maps.Clone(entries)}
}

func (m *MemoryStore) Load(_ context.Context) (map[string]core.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return maps.Clone(m.entries), nil
}

func (m *MemoryStore) Save(_ context.Context, entries map[string]core.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.entries = maps.Clone(entries)
	m.saves++
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]core.CacheEntry)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Entries returns a copy of the last saved snapshot.
func (m *MemoryStore) Entries() map[string]core.CacheEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.entries)
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Closed reports whether Close was called.
func (m *MemoryStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
