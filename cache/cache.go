package cache

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/verbatim/core"
)

const (
	DefaultSweepEvery     = 10
	DefaultCleanThreshold = 100
	DefaultKeepCount      = 50
	DefaultSaveEvery      = 5
)

// Store persists durable cache snapshots.
type Store interface {
	// Load returns every persisted entry keyed by CacheEntry.Key.
	Load(ctx context.Context) (map[string]core.CacheEntry, error)
	// Save replaces the persisted snapshot with entries.
	Save(ctx context.Context, entries map[string]core.CacheEntry) error
	// Clear removes every persisted entry.
	Clear(ctx context.Context) error
	Close() error
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Working int   `json:"working"`
	Durable int   `json:"durable"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Writes  int64 `json:"writes"`
}

// Cache is a two-tier answer cache. It is safe for concurrent use.
type Cache struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	sweepEvery     int
	cleanThreshold int
	keepCount      int
	saveEvery      int

	mu            sync.Mutex
	working       map[string]core.CacheEntry
	durable       map[string]core.CacheEntry
	workingWrites int
	durableWrites int
	// version counts durable mutations; snapshots carry the version they saw.
	version uint64

	saveMu       sync.Mutex
	savedVersion uint64

	hits   atomic.Int64
	misses atomic.Int64
	writes atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithSweep sets how often the working set is swept, the size above which a
// sweep evicts, and how many entries survive an eviction.
func WithSweep(every, threshold, keep int) Option {
	return func(c *Cache) error {
		if every <= 0 || threshold <= 0 || keep <= 0 || keep > threshold {
			return fmt.Errorf("%w: sweep every=%d threshold=%d keep=%d", ErrInvalidOption, every, threshold, keep)
		}
		c.sweepEvery = every
		c.cleanThreshold = threshold
		c.keepCount = keep
		return nil
	}
}

// WithSaveEvery sets how many writes trigger a durable snapshot.
func WithSaveEvery(n int) Option {
	return func(c *Cache) error {
		if n <= 0 {
			return fmt.Errorf("%w: save every=%d", ErrInvalidOption, n)
		}
		c.saveEvery = n
		return nil
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) error {
		if now != nil {
			c.now = now
		}
		return nil
	}
}

// New creates a cache and loads the durable set from store. A load failure
// is logged and leaves the durable set empty.
func New(ctx context.Context, store Store, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	c := &Cache{
		store:          store,
		logger:         slog.Default().With("component", "cache"),
		now:            time.Now,
		sweepEvery:     DefaultSweepEvery,
		cleanThreshold: DefaultCleanThreshold,
		keepCount:      DefaultKeepCount,
		saveEvery:      DefaultSaveEvery,
		working:        make(map[string]core.CacheEntry),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	durable, err := store.Load(ctx)
	if err != nil {
		c.logger.Warn("failed to load durable cache, starting empty", "err", err)
		durable = nil
	}
	if durable == nil {
		durable = make(map[string]core.CacheEntry)
	}
	c.durable = durable
	c.logger.Debug("durable cache loaded", "entries", len(durable))

	return c, nil
}

// Get returns the cached response for question.
func (c *Cache) Get(question string) (string, bool) {
	key := core.NormalizeKey(question)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.working[key]; ok {
		e.LastAccessed = now
		e.HitCount++
		c.working[key] = e
		c.hits.Add(1)
		return e.Response, true
	}

	if e, ok := c.durable[key]; ok {
		e.LastAccessed = now
		e.HitCount++
		c.working[key] = e
		c.hits.Add(1)
		return e.Response, true
	}

	c.misses.Add(1)
	return "", false
}

// Put writes response to both tiers. The durable snapshot is saved outside
// the lock; a save failure is logged, not returned. Saves are serialized and
// a snapshot older than the last one saved is dropped.
func (c *Cache) Put(ctx context.Context, question, response string) error {
	now := c.now()
	entry := core.CacheEntry{
		Key:          core.NormalizeKey(question),
		Response:     response,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := core.ValidateCacheEntry(&entry); err != nil {
		return err
	}

	c.mu.Lock()
	c.working[entry.Key] = entry
	c.durable[entry.Key] = entry
	c.workingWrites++
	c.durableWrites++
	c.version++
	if c.workingWrites%c.sweepEvery == 0 {
		c.sweepLocked()
	}
	var snapshot map[string]core.CacheEntry
	if c.durableWrites%c.saveEvery == 0 {
		snapshot = maps.Clone(c.durable)
	}
	version := c.version
	c.mu.Unlock()

	c.writes.Add(1)

	if snapshot != nil {
		if err := c.save(ctx, snapshot, version); err != nil {
			c.logger.Warn("failed to save durable cache", "entries", len(snapshot), "err", err)
		}
	}
	return nil
}

// save writes snapshot unless a newer one has already been saved.
func (c *Cache) save(ctx context.Context, snapshot map[string]core.CacheEntry, version uint64) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if version < c.savedVersion {
		c.logger.Debug("skipping stale cache snapshot", "version", version, "saved", c.savedVersion)
		return nil
	}
	if err := c.store.Save(ctx, snapshot); err != nil {
		return err
	}
	c.savedVersion = version
	return nil
}

// sweepLocked evicts all but the most recently accessed working entries once
// the working set exceeds the clean threshold. Must be called with mu held.
func (c *Cache) sweepLocked() {
	if len(c.working) <= c.cleanThreshold {
		return
	}

	keys := slices.Collect(maps.Keys(c.working))
	slices.SortStableFunc(keys, func(a, b string) int {
		return c.working[b].LastAccessed.Compare(c.working[a].LastAccessed)
	})

	kept := make(map[string]core.CacheEntry, c.keepCount)
	for _, k := range keys[:c.keepCount] {
		kept[k] = c.working[k]
	}
	c.logger.Debug("working cache swept", "before", len(c.working), "after", len(kept))
	c.working = kept
}

// Flush saves the durable set now.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	snapshot := maps.Clone(c.durable)
	version := c.version
	c.mu.Unlock()

	if err := c.save(ctx, snapshot, version); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}

// Clear empties both tiers and the store.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.working = make(map[string]core.CacheEntry)
	c.durable = make(map[string]core.CacheEntry)
	c.workingWrites = 0
	c.durableWrites = 0
	c.version++
	version := c.version
	c.mu.Unlock()

	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache store: %w", err)
	}
	c.savedVersion = version
	return nil
}

// Stats returns current sizes and counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	working, durable := len(c.working), len(c.durable)
	c.mu.Unlock()

	return Stats{
		Working: working,
		Durable: durable,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Writes:  c.writes.Load(),
	}
}

// Close saves the durable set and closes the store.
func (c *Cache) Close() error {
	flushErr := c.Flush(context.Background())
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("failed to close cache store: %w", err)
	}
	return flushErr
}
