package badger

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/verbatim/core"
)

// Timestamps are stored as Unix microseconds.

// MarshalCacheEntry serializes a CacheEntry to bytes.
func MarshalCacheEntry(e core.CacheEntry) []byte {
	buf := make([]byte, sizeCacheEntry(e))
	n := ord.String.Marshal(e.Key, buf)
	n += ord.String.Marshal(e.Response, buf[n:])
	n += varint.Int64.Marshal(e.CreatedAt.UnixMicro(), buf[n:])
	n += varint.Int64.Marshal(e.LastAccessed.UnixMicro(), buf[n:])
	varint.Int64.Marshal(e.HitCount, buf[n:])
	return buf
}

// UnmarshalCacheEntry deserializes a CacheEntry from bytes.
func UnmarshalCacheEntry(data []byte) (core.CacheEntry, error) {
	var (
		e       core.CacheEntry
		n, off  int
		created int64
		access  int64
		err     error
	)

	if e.Key, n, err = ord.String.Unmarshal(data); err != nil {
		return core.CacheEntry{}, err
	}
	off += n
	if e.Response, n, err = ord.String.Unmarshal(data[off:]); err != nil {
		return core.CacheEntry{}, err
	}
	off += n
	if created, n, err = varint.Int64.Unmarshal(data[off:]); err != nil {
		return core.CacheEntry{}, err
	}
	off += n
	if access, n, err = varint.Int64.Unmarshal(data[off:]); err != nil {
		return core.CacheEntry{}, err
	}
	off += n
	if e.HitCount, _, err = varint.Int64.Unmarshal(data[off:]); err != nil {
		return core.CacheEntry{}, err
	}

	e.CreatedAt = time.UnixMicro(created).UTC()
	e.LastAccessed = time.UnixMicro(access).UTC()
	return e, nil
}

func sizeCacheEntry(e core.CacheEntry) int {
	return ord.String.Size(e.Key) +
		ord.String.Size(e.Response) +
		varint.Int64.Size(e.CreatedAt.UnixMicro()) +
		varint.Int64.Size(e.LastAccessed.UnixMicro()) +
		varint.Int64.Size(e.HitCount)
}
