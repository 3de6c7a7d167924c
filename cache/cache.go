// Package cache provides a byte-oriented key-value store with per-entry
// TTLs, tuned for market data: quotes go stale in minutes while the
// exchange is open, dividend scrapes last a day, and some entries never
// expire at all.
package cache

import (
	"sync"
	"time"
)

// NeverExpires marks an entry that stays valid until explicitly removed.
const NeverExpires time.Duration = -1

type entry struct {
	value     []byte
	expiresAt time.Time // zero for non-expiring entries
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is an in-memory key-value store with lazy expiry: entries are
// dropped when read after their deadline, never by a background sweeper.
// Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is injectable for tests.
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores a value with the given TTL. NeverExpires (or any negative
// TTL) keeps the entry until removed; a zero TTL expires it immediately.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: value}
	if ttl >= 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
}

// Get returns the value for key, or false when the key is absent or its
// TTL has elapsed. An expired entry is removed on the way out.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Delete removes a key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

// Len returns the number of live entries. Expired-but-unread entries are
// counted; only a read evicts them.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
