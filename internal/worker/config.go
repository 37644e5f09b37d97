// Package worker runs background maintenance jobs for the API.
package worker

import "time"

// SweepConfig holds configuration for the session sweep job.
type SweepConfig struct {
	// Interval between sweeps.
	// Default: 1 minute
	Interval time.Duration

	// Timeout bounds a single sweep.
	// Default: 10 seconds
	Timeout time.Duration
}

// DefaultSweepConfig returns the default sweep configuration.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Interval: time.Minute,
		Timeout:  10 * time.Second,
	}
}

func (c SweepConfig) withDefaults() SweepConfig {
	def := DefaultSweepConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
