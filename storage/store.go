package storage

import (
	"errors"
	"sync/atomic"
)

// Appender represents an append-only sink for opaque payloads. Each call to
// Append adds the whole payload after whatever was appended before. Appenders
// must be safe for concurrent use; concurrent payloads may land in either
// order, but never interleaved with each other.
type Appender interface {
	Append(p []byte) error
}

var (
	// ErrNotFound indicates a record is not in the store.
	ErrNotFound = errors.New("not found")
)

// Process-wide counter used to keep per-payload names unique even when two
// payloads arrive within the same millisecond.
var seq uint64

func nextSeq() uint64 {
	return atomic.AddUint64(&seq, 1)
}

func dup(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
