package store

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type memoryEntry struct {
	value    []byte
	expireAt time.Time // zero value means no expiry
}

// MemoryStore is a mutex-based in-memory Store, used in tests and local
// development in place of Redis. Thread-safe via sync.RWMutex, grounded on
// the teacher's mutex-guarded MemoryStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	log     zerolog.Logger
}

// NewMemoryStore creates a new in-memory Store.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		log:     log.With().Str("component", "memory-store").Logger(),
	}
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expiration > 0 {
		entry.expireAt = time.Now().Add(expiration)
	}
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(entry) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return append([]byte(nil), entry.value...), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	var current int64
	if ok && !s.expired(entry) {
		current, _ = strconv.ParseInt(string(entry.value), 10, 64)
	}
	current++
	s.entries[key] = memoryEntry{value: []byte(strconv.FormatInt(current, 10)), expireAt: entry.expireAt}
	return current, nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	entry.expireAt = time.Now().Add(ttl)
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []string
	for key, entry := range s.entries {
		if s.expired(entry) {
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			matches = append(matches, key)
		}
	}
	return matches, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expireAt.IsZero() && time.Now().After(e.expireAt)
}
