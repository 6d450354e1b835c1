package storage

import (
	"sync"
)

// InMemoryStore is an Appender powered by a byte slice, to be used for
// testing.
type InMemoryStore struct {
	sync.Mutex
	b []byte
	n int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(p []byte) (err error) {
	s.Lock()
	s.b = append(s.b, p...)
	s.n++
	s.Unlock()
	return nil
}

// Bytes returns a copy of everything appended so far.
func (s *InMemoryStore) Bytes() []byte {
	s.Lock()
	defer s.Unlock()
	b := dup(s.b)
	if b == nil {
		b = []byte{}
	}
	return b
}

// Count returns the number of payloads appended so far.
func (s *InMemoryStore) Count() int {
	s.Lock()
	defer s.Unlock()
	return s.n
}
