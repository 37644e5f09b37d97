package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privacyguard/privacyguard/internal/session"
	"github.com/privacyguard/privacyguard/internal/worker"
)

type stubSweeper struct {
	mu      sync.Mutex
	calls   int
	removed int
	err     error
}

func (s *stubSweeper) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("sweep called without a deadline")
	}
	return s.removed, s.err
}

func (s *stubSweeper) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestDefaultSweepConfig(t *testing.T) {
	cfg := worker.DefaultSweepConfig()

	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestNewSweepJob_Defaults(t *testing.T) {
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Sweeper: &stubSweeper{},
		Logger:  zerolog.Nop(),
	})
	assert.Equal(t, time.Minute, job.Interval())
}

func TestSweepJob_RunOnce(t *testing.T) {
	sweeper := &stubSweeper{removed: 3}
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Sweeper: sweeper,
		Logger:  zerolog.Nop(),
	})

	result := job.RunOnce(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Removed)

	sweeper.removed = 2
	job.RunOnce(context.Background())

	stats := job.Stats()
	assert.Equal(t, int64(2), stats.TotalRuns)
	assert.Equal(t, int64(0), stats.FailedRuns)
	assert.Equal(t, int64(5), stats.TotalRemoved)
	assert.Equal(t, 2, stats.LastRemoved)
	assert.Empty(t, stats.LastError)
}

func TestSweepJob_RunOnce_Error(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("repository unavailable")}
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Sweeper: sweeper,
		Logger:  zerolog.Nop(),
	})

	result := job.RunOnce(context.Background())
	assert.Error(t, result.Err)

	stats := job.Stats()
	assert.Equal(t, int64(1), stats.FailedRuns)
	assert.Equal(t, "repository unavailable", stats.LastError)

	snapshot := job.StatsSnapshot()
	assert.Equal(t, int64(1), snapshot["failed_runs"])
	assert.Equal(t, "repository unavailable", snapshot["last_error"])
}

func TestSweepJob_Run(t *testing.T) {
	sweeper := &stubSweeper{}
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config:  worker.SweepConfig{Interval: 5 * time.Millisecond},
		Sweeper: sweeper,
		Logger:  zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sweeper.Calls() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestSweepJob_WithSessionService(t *testing.T) {
	now := time.Date(2025, 5, 25, 9, 0, 0, 0, time.UTC)

	svc := session.NewService(session.ServiceConfig{
		Logger:  zerolog.Nop(),
		IdleTTL: time.Minute,
		Now:     func() time.Time { return now },
	})
	ctx := context.Background()

	_, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.Start(ctx)
	require.NoError(t, err)

	job := worker.NewSweepJob(worker.SweepJobConfig{Sweeper: svc, Logger: zerolog.Nop()})

	result := job.RunOnce(ctx)
	require.NoError(t, result.Err)
	assert.Zero(t, result.Removed)

	now = now.Add(2 * time.Minute)
	result = job.RunOnce(ctx)
	require.NoError(t, result.Err)
	assert.Equal(t, 2, result.Removed)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
