package request

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used in dev and tests.
// Expired entries are dropped lazily on access and by PurgeExpired.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memEntry
}

type memEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemoryOption configures MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the clock used for expiry (tests).
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[string]memEntry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Close closes the store (noop for in-memory).
func (s *MemoryStore) Close() error { return nil }

// Put upserts rec with the given ttl.
func (s *MemoryStore) Put(ctx context.Context, rec Record, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validRecord(rec) || ttl <= 0 {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[rec.ID] = memEntry{rec: rec.Clone(), expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns the record for id, or ErrNotFound when absent or expired.
func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveLocked(id)
	if !ok {
		return Record{}, ErrNotFound
	}
	return e.rec.Clone(), nil
}

// PutIfStatus replaces the record only while its status equals expected.
func (s *MemoryStore) PutIfStatus(ctx context.Context, id string, expected Status, next Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" || next.ID != id || !validRecord(next) {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.liveLocked(id)
	if !ok {
		return ErrNotFound
	}
	if e.rec.Status != expected {
		return ErrConflict
	}
	e.rec = next.Clone()
	s.entries[id] = e
	return nil
}

// PurgeExpired removes every expired entry and returns how many were dropped.
func (s *MemoryStore) PurgeExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for id, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of entries held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) liveLocked(id string) (memEntry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return memEntry{}, false
	}
	if !e.expiresAt.After(s.now()) {
		delete(s.entries, id)
		return memEntry{}, false
	}
	return e, true
}
