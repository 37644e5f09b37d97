package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privacyguard/privacyguard/internal/session"
	"github.com/privacyguard/privacyguard/internal/simulator"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 5, 25, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, clock *fakeClock, maxSessions int) (*session.Service, *session.Metrics) {
	t.Helper()
	metrics := session.NewMetrics(prometheus.NewRegistry())
	svc := session.NewService(session.ServiceConfig{
		Repository:  session.NewInMemoryRepository(),
		Logger:      zerolog.Nop(),
		Metrics:     metrics,
		IdleTTL:     10 * time.Minute,
		MaxSessions: maxSessions,
		Now:         clock.Now,
	})
	return svc, metrics
}

func TestService_StartAndGet(t *testing.T) {
	svc, metrics := newTestService(t, newFakeClock(), 10)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^ses_[0-9a-f]{32}$`, sess.ID)
	assert.NotNil(t, sess.Simulator)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SessionsStarted))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ActiveSessions))
}

func TestService_SessionsAreIsolated(t *testing.T) {
	svc, _ := newTestService(t, newFakeClock(), 10)
	ctx := context.Background()

	a, err := svc.Start(ctx)
	require.NoError(t, err)
	b, err := svc.Start(ctx)
	require.NoError(t, err)

	_, err = svc.DeleteRecord(ctx, a.ID, "rec_email")
	require.NoError(t, err)

	snapB, err := svc.Snapshot(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snapB.Counts.Deleted)
}

func TestService_GetUnknown(t *testing.T) {
	svc, _ := newTestService(t, newFakeClock(), 10)

	_, err := svc.Get(context.Background(), "ses_missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestService_IdleExpiry(t *testing.T) {
	clock := newFakeClock()
	svc, metrics := newTestService(t, clock, 10)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	_, err = svc.Get(ctx, sess.ID)
	require.NoError(t, err, "access within the TTL keeps the session alive")

	clock.Advance(9 * time.Minute)
	_, err = svc.Get(ctx, sess.ID)
	require.NoError(t, err, "activity refreshes the idle timer")

	clock.Advance(11 * time.Minute)
	_, err = svc.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SessionsEnded.WithLabelValues("expired")))
}

func TestService_Sweep(t *testing.T) {
	clock := newFakeClock()
	svc, _ := newTestService(t, clock, 10)
	ctx := context.Background()

	stale, err := svc.Start(ctx)
	require.NoError(t, err)
	clock.Advance(8 * time.Minute)
	fresh, err := svc.Start(ctx)
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)

	removed, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = svc.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = svc.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestService_SessionLimit(t *testing.T) {
	clock := newFakeClock()
	svc, _ := newTestService(t, clock, 2)
	ctx := context.Background()

	_, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.Start(ctx)
	require.NoError(t, err)

	_, err = svc.Start(ctx)
	assert.ErrorIs(t, err, session.ErrSessionLimitReached)

	clock.Advance(11 * time.Minute)
	_, err = svc.Start(ctx)
	assert.NoError(t, err, "expired sessions free their slots")
}

func TestService_End(t *testing.T) {
	svc, metrics := newTestService(t, newFakeClock(), 10)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.End(ctx, sess.ID))
	require.NoError(t, svc.End(ctx, sess.ID), "ending twice is not an error")

	_, err = svc.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SessionsEnded.WithLabelValues("logout")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.ActiveSessions))
}

func TestService_Operations(t *testing.T) {
	svc, metrics := newTestService(t, newFakeClock(), 10)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	snap, err := svc.SetConsent(ctx, sess.ID, simulator.ConsentContact, true)
	require.NoError(t, err)
	assert.True(t, snap.Consents[simulator.ConsentContact])

	snap, err = svc.Anonymize(ctx, sess.ID, "rec_phone")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Counts.Anonymized)

	snap, err = svc.DeleteRecord(ctx, sess.ID, "rec_unknown")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Counts.Deleted)

	snap, err = svc.DeleteWithoutConsent(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Counts.Deleted)

	snap, err = svc.AnonymizeAll(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Counts.Active, snap.Counts.Anonymized)

	snap, err = svc.Reset(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, simulator.New(simulator.DefaultSeed()).Snapshot(), snap)

	history, err := svc.History(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, history, 6)

	assert.Equal(t, session.OpSetConsent, history[0].Operation)
	assert.Equal(t, "contact", history[0].Target)
	assert.Equal(t, 2, history[0].Affected, "contact governs phone and address")
	assert.Equal(t, session.OpDeleteRecord, history[2].Operation)
	assert.False(t, history[2].Applied)
	assert.Equal(t, 4, history[3].Affected)
	assert.Equal(t, session.OpReset, history[5].Operation)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Operations.WithLabelValues("delete_record", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Operations.WithLabelValues("anonymize", "true")))
}

func TestService_OperationOnMissingSession(t *testing.T) {
	svc, _ := newTestService(t, newFakeClock(), 10)

	_, err := svc.AnonymizeAll(context.Background(), "ses_missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestService_Record(t *testing.T) {
	svc, _ := newTestService(t, newFakeClock(), 10)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	rec, ok, err := svc.Record(ctx, sess.ID, "rec_full_name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Mario Rossi", rec.Value)

	_, ok, err = svc.Record(ctx, sess.ID, "rec_missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_JournalIsBounded(t *testing.T) {
	svc, _ := newTestService(t, newFakeClock(), 10)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	for i := 0; i < 120; i++ {
		_, err := svc.Anonymize(ctx, sess.ID, "rec_email")
		require.NoError(t, err)
	}
	_, err = svc.Reset(ctx, sess.ID)
	require.NoError(t, err)

	history, err := svc.History(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, history, 100)
	assert.Equal(t, session.OpReset, history[len(history)-1].Operation)
}

func TestNewService_Defaults(t *testing.T) {
	svc := session.NewService(session.ServiceConfig{Logger: zerolog.Nop()})
	assert.Equal(t, session.DefaultIdleTTL, svc.IdleTTL())

	sess, err := svc.Start(context.Background())
	require.NoError(t, err)
	assert.Len(t, sess.Simulator.ActiveRecords(), len(simulator.DefaultSeed().Records))
}

func TestService_SessionLimitUnderConcurrency(t *testing.T) {
	svc, metrics := newTestService(t, newFakeClock(), 5)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
		limited int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Start(ctx)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				started++
			case errors.Is(err, session.ErrSessionLimitReached):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, started)
	assert.Equal(t, 45, limited)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, float64(5), testutil.ToFloat64(metrics.SessionsStarted))
}

func TestService_SetConsentJournalsGovernedRecords(t *testing.T) {
	svc, _ := newTestService(t, newFakeClock(), 10)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	_, err = svc.SetConsent(ctx, sess.ID, simulator.ConsentEssential, false)
	require.NoError(t, err)
	_, err = svc.SetConsent(ctx, sess.ID, simulator.ConsentMarketing, true)
	require.NoError(t, err)
	_, err = svc.SetConsent(ctx, sess.ID, "analytics", true)
	require.NoError(t, err)

	history, err := svc.History(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.True(t, history[0].Applied)
	assert.Zero(t, history[0].Affected, "essential governs no record")
	assert.True(t, history[1].Applied)
	assert.Equal(t, 2, history[1].Affected)
	assert.False(t, history[2].Applied)
	assert.Zero(t, history[2].Affected)
}

func TestService_WriteReturnsOwnSnapshot(t *testing.T) {
	svc, _ := newTestService(t, newFakeClock(), 10)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			snap, err := svc.Reset(ctx, sess.ID)
			if assert.NoError(t, err) {
				assert.Zero(t, snap.Counts.Deleted)
			}
		}()
		go func() {
			defer wg.Done()
			snap, err := svc.DeleteRecord(ctx, sess.ID, "rec_email")
			if assert.NoError(t, err) {
				assert.Equal(t, 1, snap.Counts.Deleted)
			}
		}()
	}
	wg.Wait()
}

func TestInMemoryRepository_CreateLimit(t *testing.T) {
	repo := session.NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	seed := simulator.DefaultSeed()

	n, err := repo.Create(ctx, session.New("ses_a", seed, now), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.Create(ctx, session.New("ses_a", seed, now), 2)
	assert.ErrorIs(t, err, session.ErrSessionExists)

	n, err = repo.Create(ctx, session.New("ses_b", seed, now), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.Create(ctx, session.New("ses_c", seed, now), 2)
	assert.ErrorIs(t, err, session.ErrSessionLimitReached)

	n, err = repo.Create(ctx, session.New("ses_c", seed, now), 0)
	require.NoError(t, err, "a non-positive limit disables the cap")
	assert.Equal(t, 3, n)
}
