package session

import (
	"context"
	"time"
)

// Repository defines the interface for session storage.
type Repository interface {
	// Create stores a new session unless limit sessions are already stored,
	// checking and inserting atomically. A limit <= 0 disables the check.
	// Returns the number of stored sessions after the insert,
	// ErrSessionLimitReached when full, or ErrSessionExists if the ID is taken.
	Create(ctx context.Context, s *Session, limit int) (int, error)

	// Get retrieves a session by ID. Returns ErrSessionNotFound if missing.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)

	// DeleteIdle removes every session with no activity since cutoff and
	// returns how many were removed.
	DeleteIdle(ctx context.Context, cutoff time.Time) (int, error)
}
