package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryTokenStore keeps bearer tokens in process memory. Used in
// development and tests when no Redis instance is configured.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]memoryToken
}

type memoryToken struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// NewMemoryTokenStore creates an in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]memoryToken)}
}

// SaveSession stores a bearer token with a TTL.
func (s *MemoryTokenStore) SaveSession(_ context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryToken{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

// GetSession resolves a bearer token to a user id.
// Returns uuid.Nil with no error when the token is unknown or expired.
func (s *MemoryTokenStore) GetSession(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.RLock()
	t, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return uuid.Nil, nil
	}
	if time.Now().After(t.expiresAt) {
		s.mu.Lock()
		delete(s.tokens, token)
		s.mu.Unlock()
		return uuid.Nil, nil
	}
	return t.userID, nil
}

// DeleteSession invalidates a bearer token.
func (s *MemoryTokenStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
