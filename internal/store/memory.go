package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   string
	pending   PendingVerification
	expiresAt time.Time
}

func (e memoryEntry) live(now time.Time) bool {
	return now.Before(e.expiresAt)
}

type memorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemorySessionStore builds an in-memory session store for testing. Expiry
// is checked lazily on read, mirroring the absent-or-expired semantics of the
// Redis store.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{entries: make(map[string]memoryEntry)}
}

func (s *memorySessionStore) SetIfAbsent(_ context.Context, userID, deviceType, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(userID, deviceType)
	if entry, ok := s.entries[key]; ok && entry.live(time.Now()) {
		return false, nil
	}
	s.entries[key] = memoryEntry{session: token, expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (s *memorySessionStore) Get(_ context.Context, userID, deviceType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(userID, deviceType)
	entry, ok := s.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	if !entry.live(time.Now()) {
		delete(s.entries, key)
		return "", ErrNotFound
	}
	return entry.session, nil
}

func (s *memorySessionStore) Delete(_ context.Context, userID, deviceType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionKey(userID, deviceType))
	return nil
}

type memoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryPendingStore builds an in-memory pending-verification store for testing.
func NewMemoryPendingStore() PendingStore {
	return &memoryPendingStore{entries: make(map[string]memoryEntry)}
}

func (s *memoryPendingStore) SetIfAbsent(_ context.Context, record PendingVerification, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := verifyKey(record.Email)
	if entry, ok := s.entries[key]; ok && entry.live(time.Now()) {
		return false, nil
	}
	s.entries[key] = memoryEntry{pending: record, expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (s *memoryPendingStore) Get(_ context.Context, email string) (PendingVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := verifyKey(email)
	entry, ok := s.entries[key]
	if !ok {
		return PendingVerification{}, ErrNotFound
	}
	if !entry.live(time.Now()) {
		delete(s.entries, key)
		return PendingVerification{}, ErrNotFound
	}
	return entry.pending, nil
}

func (s *memoryPendingStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, verifyKey(email))
	return nil
}
