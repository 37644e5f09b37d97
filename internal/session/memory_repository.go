package session

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Sessions hold live simulators, so Get returns the stored pointer rather
// than a copy.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryRepository creates a new in-memory session repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session if the repository holds fewer than limit.
func (r *InMemoryRepository) Create(_ context.Context, s *Session, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return len(r.sessions), ErrSessionExists
	}
	if limit > 0 && len(r.sessions) >= limit {
		return len(r.sessions), ErrSessionLimitReached
	}
	r.sessions[s.ID] = s
	return len(r.sessions), nil
}

// Get retrieves a session by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// Count returns the number of stored sessions.
func (r *InMemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions), nil
}

// DeleteIdle removes sessions idle since cutoff.
func (r *InMemoryRepository) DeleteIdle(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.IdleSince(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
