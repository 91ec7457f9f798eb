package badger

import (
	"encoding/binary"

	"github.com/poiesic/verbatim/core"
)

// entryPrefix namespaces cache entries in the database.
const entryPrefix = "qcache:"

// makeEntryKey generates the key for a cache entry.
// Format: prefix + BLAKE2b-64 of the normalized question, big endian.
func makeEntryKey(key string) []byte {
	buf := make([]byte, len(entryPrefix)+8)
	offset := copy(buf, entryPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(key)))
	return buf
}
