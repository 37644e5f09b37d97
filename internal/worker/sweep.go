package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper removes expired sessions and reports how many it removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SweepJob periodically evicts idle sessions so abandoned simulators do
// not hold memory until their next access.
type SweepJob struct {
	config  SweepConfig
	sweeper Sweeper
	logger  zerolog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	stats SweepStats
}

// SweepStats tracks sweep job statistics.
type SweepStats struct {
	TotalRuns     int64
	FailedRuns    int64
	TotalRemoved  int64
	LastRunAt     time.Time
	LastDuration  time.Duration
	LastRemoved   int
	LastError     string
	TotalDuration time.Duration
}

// SweepResult contains the outcome of a single sweep.
type SweepResult struct {
	StartTime time.Time
	Duration  time.Duration
	Removed   int
	Err       error
}

// SweepJobConfig holds configuration for creating a SweepJob.
type SweepJobConfig struct {
	Config  SweepConfig
	Sweeper Sweeper
	Logger  zerolog.Logger
	Now     func() time.Time
}

// NewSweepJob creates a new sweep job.
func NewSweepJob(cfg SweepJobConfig) *SweepJob {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SweepJob{
		config:  cfg.Config.withDefaults(),
		sweeper: cfg.Sweeper,
		logger:  cfg.Logger,
		now:     now,
	}
}

// Interval returns the configured sweep interval.
func (j *SweepJob) Interval() time.Duration {
	return j.config.Interval
}

// RunOnce performs a single sweep bounded by the configured timeout.
func (j *SweepJob) RunOnce(ctx context.Context) SweepResult {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := j.now()
	removed, err := j.sweeper.Sweep(ctx)
	result := SweepResult{
		StartTime: start,
		Duration:  j.now().Sub(start),
		Removed:   removed,
		Err:       err,
	}
	j.record(result)

	switch {
	case err != nil:
		j.logger.Error().Err(err).Msg("session sweep failed")
	case removed > 0:
		j.logger.Info().
			Int("removed", removed).
			Dur("duration", result.Duration).
			Msg("expired sessions swept")
	default:
		j.logger.Debug().Msg("session sweep found nothing to remove")
	}

	return result
}

// Run sweeps on every tick until ctx is cancelled.
func (j *SweepJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	j.logger.Info().Dur("interval", j.config.Interval).Msg("session sweeper started")

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("session sweeper stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *SweepJob) record(r SweepResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.stats.TotalRuns++
	j.stats.LastRunAt = r.StartTime
	j.stats.LastDuration = r.Duration
	j.stats.TotalDuration += r.Duration
	j.stats.LastRemoved = r.Removed
	if r.Err != nil {
		j.stats.FailedRuns++
		j.stats.LastError = r.Err.Error()
		return
	}
	j.stats.LastError = ""
	j.stats.TotalRemoved += int64(r.Removed)
}

// Stats returns a copy of the current statistics.
func (j *SweepJob) Stats() SweepStats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.stats
}

// StatsSnapshot returns the statistics as a map for logging.
func (j *SweepJob) StatsSnapshot() map[string]interface{} {
	s := j.Stats()
	return map[string]interface{}{
		"total_runs":     s.TotalRuns,
		"failed_runs":    s.FailedRuns,
		"total_removed":  s.TotalRemoved,
		"last_run_at":    s.LastRunAt,
		"last_duration":  s.LastDuration.String(),
		"last_removed":   s.LastRemoved,
		"last_error":     s.LastError,
		"total_duration": s.TotalDuration.String(),
	}
}
