package session

import (
	"context"
	"sync"
	"time"

	"gamehub-api/internal/model"
)

// sessionEntry holds a stored session with its expiration.
type sessionEntry struct {
	data      model.SessionData
	expiresAt time.Time
}

func (e *sessionEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// MemoryStore is an in-memory implementation of Store.
// Use this for development/testing or single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ttl      time.Duration

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// NewMemoryStore creates a new in-memory session store with automatic
// cleanup of expired sessions.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions:        make(map[string]*sessionEntry),
		ttl:             ttl,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go s.cleanup()

	return s
}

// Create stores the session under a fresh token.
func (s *MemoryStore) Create(ctx context.Context, data model.SessionData) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	data.CreatedAt = time.Now()
	data.ExpiresAt = data.CreatedAt.Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = &sessionEntry{
		data:      data,
		expiresAt: data.ExpiresAt,
	}
	return token, nil
}

// Get retrieves a session by token.
func (s *MemoryStore) Get(ctx context.Context, token string) (*model.SessionData, error) {
	if !validToken(token) {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.sessions[token]
	if !exists || entry.isExpired() {
		return nil, ErrSessionNotFound
	}

	data := entry.data
	return &data, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// Close stops the background cleanup goroutine.
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	return nil
}

// cleanup periodically removes expired sessions.
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

// removeExpired removes all expired sessions.
func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, entry := range s.sessions {
		if entry.isExpired() {
			delete(s.sessions, token)
		}
	}
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
