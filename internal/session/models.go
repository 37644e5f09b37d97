// Package session provides per-visitor simulator sessions: creation, lookup,
// idle expiry and an action journal over the simulator operations.
package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/privacyguard/privacyguard/internal/simulator"
)

// Session errors.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExists       = errors.New("session already exists")
	ErrSessionLimitReached = errors.New("session limit reached")
)

// Operation names a simulator write recorded in the journal.
type Operation string

// Journaled operations.
const (
	OpSetConsent           Operation = "set_consent"
	OpAnonymize            Operation = "anonymize"
	OpDeleteRecord         Operation = "delete_record"
	OpAnonymizeAll         Operation = "anonymize_all"
	OpDeleteWithoutConsent Operation = "delete_without_consent"
	OpReset                Operation = "reset"
)

// maxJournalEvents bounds the per-session journal.
const maxJournalEvents = 100

// Event is one journaled simulator operation.
type Event struct {
	Operation Operation
	Target    string // record or consent category id, empty for bulk operations
	Applied   bool   // false when the operation matched nothing
	Affected  int
	At        time.Time
}

// Session is a single visitor's simulator and its history.
type Session struct {
	ID        string
	Simulator *simulator.Simulator
	CreatedAt time.Time

	lastSeen atomic.Int64

	mu      sync.Mutex
	journal []Event
}

// New creates a session with a fresh simulator built from the seed.
func New(id string, seed simulator.Seed, now time.Time) *Session {
	s := &Session{
		ID:        id,
		Simulator: simulator.New(seed),
		CreatedAt: now,
	}
	s.Touch(now)
	return s
}

// Touch records activity on the session.
func (s *Session) Touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen returns the time of the most recent activity.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// IdleSince reports whether the session has seen no activity since cutoff.
func (s *Session) IdleSince(cutoff time.Time) bool {
	return s.LastSeen().Before(cutoff)
}

func (s *Session) record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = append(s.journal, ev)
	if over := len(s.journal) - maxJournalEvents; over > 0 {
		s.journal = append(s.journal[:0:0], s.journal[over:]...)
	}
}

// History returns the journal, oldest first.
func (s *Session) History() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.journal))
	copy(out, s.journal)
	return out
}
