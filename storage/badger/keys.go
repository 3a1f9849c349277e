package badger

import (
	"encoding/binary"

	"github.com/poiesic/enrichit/core"
)

// Key prefixes for different data types
const (
	recordPrefix     = "rec:"
	recordHashPrefix = "rech:"
	recordIDSeq      = "recseq"
	embeddingPrefix  = "emb:"
	checkpointPrefix = "chkpt:"
)

// makeIDKey appends id to prefix in BigEndian order so lexicographic sort
// matches numeric order.
func makeIDKey(prefix string, id core.ID) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeRecordKey generates a key for a content record by ID.
func makeRecordKey(id core.ID) []byte {
	return makeIDKey(recordPrefix, id)
}

// makeRecordHashKey generates the content hash index key.
func makeRecordHashKey(hash core.ID) []byte {
	return makeIDKey(recordHashPrefix, hash)
}

// makeEmbeddingKey generates a key for a record's embedding.
func makeEmbeddingKey(id core.ID) []byte {
	return makeIDKey(embeddingPrefix, id)
}

// idFromKey extracts the trailing ID from a key built by makeIDKey.
func idFromKey(prefix string, key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(prefix):]))
}

// makeCheckpointKey generates a key for a named checkpoint.
func makeCheckpointKey(name string) []byte {
	return []byte(checkpointPrefix + name)
}
