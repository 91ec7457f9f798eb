// Package cache stores generated answers keyed by normalized question text.
//
// A Cache has two tiers sharing one key space. The working set lives for the
// process and is swept down to its most recently used entries every few
// writes. The durable set is loaded once from a Store when the cache is
// created, snapshotted back to it every few writes, and saved unconditionally
// on Close. Reads check the working set first; a durable hit is promoted.
//
// Store implementations live in the badger and sqlite subpackages. MemoryStore
// keeps snapshots in memory for tests and non-persistent runs.
package cache
