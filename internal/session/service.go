package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/privacyguard/privacyguard/internal/simulator"
)

const tracerName = "github.com/privacyguard/privacyguard/internal/session"

// Default service settings.
const (
	DefaultIdleTTL     = 30 * time.Minute
	DefaultMaxSessions = 1000
)

// End reasons used in metrics and logs.
const (
	reasonLogout  = "logout"
	reasonExpired = "expired"
)

// ServiceConfig holds configuration for the session service.
type ServiceConfig struct {
	Repository  Repository
	Seed        simulator.Seed
	Logger      zerolog.Logger
	Metrics     *Metrics
	IdleTTL     time.Duration    // Sessions idle longer than this expire
	MaxSessions int              // Upper bound on live sessions
	Now         func() time.Time // Clock, defaults to time.Now
}

// Service manages sessions and runs simulator operations on their behalf.
type Service struct {
	repo        Repository
	seed        simulator.Seed
	logger      zerolog.Logger
	metrics     *Metrics
	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time
	tracer      trace.Tracer
}

// NewService creates a new session service.
func NewService(cfg ServiceConfig) *Service {
	repo := cfg.Repository
	if repo == nil {
		repo = NewInMemoryRepository()
	}

	seed := cfg.Seed
	if len(seed.Records) == 0 {
		seed = simulator.DefaultSeed()
	}

	idleTTL := cfg.IdleTTL
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}

	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:        repo,
		seed:        seed,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		idleTTL:     idleTTL,
		maxSessions: maxSessions,
		now:         now,
		tracer:      otel.Tracer(tracerName),
	}
}

// IdleTTL returns the idle timeout after which sessions expire.
func (s *Service) IdleTTL() time.Duration {
	return s.idleTTL
}

// Start creates a session with a fresh simulator. The session cap is
// enforced by the repository; when it is reached, idle sessions are swept
// once before giving up.
func (s *Service) Start(ctx context.Context) (*Session, error) {
	sess := New(generateSessionID(), s.seed, s.now())

	count, err := s.repo.Create(ctx, sess, s.maxSessions)
	if errors.Is(err, ErrSessionLimitReached) {
		// Expired sessions may still occupy slots until the sweeper runs.
		if _, sweepErr := s.Sweep(ctx); sweepErr != nil {
			return nil, sweepErr
		}
		count, err = s.repo.Create(ctx, sess, s.maxSessions)
	}
	switch {
	case errors.Is(err, ErrSessionLimitReached):
		s.logger.Warn().Int("max_sessions", s.maxSessions).Msg("session limit reached")
		return nil, ErrSessionLimitReached
	case err != nil:
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.metrics.SessionStarted()
	s.metrics.SetActive(count)
	s.logger.Info().Str("session_id", sess.ID).Msg("session started")

	return sess, nil
}

// Get returns a live session and records activity on it. Sessions idle
// longer than the TTL are removed and reported as not found.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if sess.IdleSince(now.Add(-s.idleTTL)) {
		if err := s.repo.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		s.metrics.SessionsRemoved(reasonExpired, 1)
		s.refreshActive(ctx)
		s.logger.Debug().Str("session_id", id).Msg("session expired on access")
		return nil, ErrSessionNotFound
	}

	sess.Touch(now)
	return sess, nil
}

// End removes a session. Ending an unknown session is not an error.
func (s *Service) End(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.metrics.SessionsRemoved(reasonLogout, 1)
	s.refreshActive(ctx)
	s.logger.Info().Str("session_id", id).Msg("session ended")
	return nil
}

// Count returns the number of stored sessions.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Sweep removes every session idle longer than the TTL.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	removed, err := s.repo.DeleteIdle(ctx, s.now().Add(-s.idleTTL))
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}

	s.metrics.SessionsRemoved(reasonExpired, removed)
	s.refreshActive(ctx)
	return removed, nil
}

func (s *Service) refreshActive(ctx context.Context) {
	if count, err := s.repo.Count(ctx); err == nil {
		s.metrics.SetActive(count)
	}
}

// Snapshot returns the session's current simulator state.
func (s *Service) Snapshot(ctx context.Context, id string) (*simulator.Snapshot, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Simulator.Snapshot(), nil
}

// Record returns a single record of the session's simulator.
func (s *Service) Record(ctx context.Context, id, recordID string) (simulator.Record, bool, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return simulator.Record{}, false, err
	}
	rec, ok := sess.Simulator.Record(recordID)
	return rec, ok, nil
}

// History returns the session's action journal.
func (s *Service) History(ctx context.Context, id string) ([]Event, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.History(), nil
}

// SetConsent grants or revokes a consent category. The journal records how
// many records the category governs.
func (s *Service) SetConsent(ctx context.Context, id string, consent simulator.ConsentID, granted bool) (*simulator.Snapshot, error) {
	return s.apply(ctx, id, OpSetConsent, string(consent), func(tx *simulator.Tx) (bool, int) {
		return tx.SetConsent(consent, granted)
	})
}

// Anonymize marks one record as anonymized.
func (s *Service) Anonymize(ctx context.Context, id, recordID string) (*simulator.Snapshot, error) {
	return s.apply(ctx, id, OpAnonymize, recordID, func(tx *simulator.Tx) (bool, int) {
		ok := tx.Anonymize(recordID)
		return ok, boolToInt(ok)
	})
}

// DeleteRecord marks one record as deleted.
func (s *Service) DeleteRecord(ctx context.Context, id, recordID string) (*simulator.Snapshot, error) {
	return s.apply(ctx, id, OpDeleteRecord, recordID, func(tx *simulator.Tx) (bool, int) {
		ok := tx.DeleteRecord(recordID)
		return ok, boolToInt(ok)
	})
}

// AnonymizeAll marks every record as anonymized.
func (s *Service) AnonymizeAll(ctx context.Context, id string) (*simulator.Snapshot, error) {
	return s.apply(ctx, id, OpAnonymizeAll, "", func(tx *simulator.Tx) (bool, int) {
		n := tx.AnonymizeAll()
		return n > 0, n
	})
}

// DeleteWithoutConsent deletes every record lacking consent.
func (s *Service) DeleteWithoutConsent(ctx context.Context, id string) (*simulator.Snapshot, error) {
	return s.apply(ctx, id, OpDeleteWithoutConsent, "", func(tx *simulator.Tx) (bool, int) {
		n := tx.DeleteWithoutConsent()
		return n > 0, n
	})
}

// Reset restores the session's simulator to the seed state.
func (s *Service) Reset(ctx context.Context, id string) (*simulator.Snapshot, error) {
	return s.apply(ctx, id, OpReset, "", func(tx *simulator.Tx) (bool, int) {
		tx.Reset()
		return true, 0
	})
}

// apply runs a simulator write inside a span, journals it and counts it.
// The returned snapshot is taken under the same lock as the write.
func (s *Service) apply(
	ctx context.Context,
	id string,
	op Operation,
	target string,
	fn func(*simulator.Tx) (bool, int),
) (*simulator.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "session."+string(op),
		trace.WithAttributes(
			attribute.String("session.operation", string(op)),
			attribute.String("session.target", target),
		),
	)
	defer span.End()

	sess, err := s.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var applied bool
	var affected int
	snap := sess.Simulator.Update(func(tx *simulator.Tx) {
		applied, affected = fn(tx)
	})
	sess.record(Event{
		Operation: op,
		Target:    target,
		Applied:   applied,
		Affected:  affected,
		At:        s.now(),
	})

	span.SetAttributes(
		attribute.Bool("session.applied", applied),
		attribute.Int("session.affected", affected),
	)
	s.metrics.IncrementOperation(op, applied)
	s.logger.Debug().
		Str("session_id", id).
		Str("operation", string(op)).
		Str("target", target).
		Bool("applied", applied).
		Int("affected", affected).
		Msg("simulator operation")

	return snap, nil
}

func generateSessionID() string {
	return "ses_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
