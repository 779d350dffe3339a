// Package store implements the thread-safe flat key-value mapping the
// cache server holds in memory: string keys to opaque byte values, with a
// paginated key listing. There is no expiry, eviction, or secondary index —
// just a map behind a single mutex; no striping is needed at this scale,
// since the reactor's goroutine-per-connection design is the sole contender.
package store

import (
	"sort"
	"strings"
	"sync"
)

// Store is a concurrency-safe mapping from string keys to byte-slice
// values. The zero value is not usable; construct with New.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns the value bound to key and whether it was present.
func (s *Store) Get(key string) (value []byte, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set binds key to value, returning whatever value key was previously
// bound to (and whether it existed). An empty or nil value is a legal
// binding distinct from the key being absent.
func (s *Store) Set(key string, value []byte) (previous []byte, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, existed = s.data[key]
	s.data[key] = value
	return previous, existed
}

// Delete removes key, returning its previous value (and whether it
// existed). Deleting an absent key is a no-op and returns existed=false.
func (s *Store) Delete(key string) (previous []byte, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, existed = s.data[key]
	if existed {
		delete(s.data, key)
	}
	return previous, existed
}

// Keys returns take keys after skipping skip, CRLF-joined as UTF-8 bytes.
// The key set is snapshotted under a single read lock before slicing, so a
// concurrent mutation can neither duplicate nor skip a key that was present
// through the entire call. Iteration order is otherwise unspecified by the
// protocol; this implementation sorts the snapshot so repeated calls
// against an unchanged key set are stable.
func (s *Store) Keys(take, skip uint64) []byte {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)

	if skip >= uint64(len(keys)) {
		return nil
	}
	keys = keys[skip:]

	if take < uint64(len(keys)) {
		keys = keys[:take]
	}
	if len(keys) == 0 {
		return nil
	}

	return []byte(strings.Join(keys, "\r\n"))
}

// Len reports the number of keys currently stored. Used by internal/metrics
// for observability; not part of the wire protocol.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
