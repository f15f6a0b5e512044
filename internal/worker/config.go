// Package worker runs the dashboard's background polling jobs.
package worker

import (
	"time"
)

// PollConfig holds configuration for the live conditions poller.
type PollConfig struct {
	// Interval is the time between polls.
	// Default: 60 seconds
	Interval time.Duration

	// Timeout is the timeout for a single poll.
	// Default: 30 seconds
	Timeout time.Duration

	// WaitForSchedule delays the first poll by one interval instead of
	// polling on start.
	WaitForSchedule bool
}

// DefaultPollConfig returns the default poll configuration.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
	}
}

func (c PollConfig) withDefaults() PollConfig {
	d := DefaultPollConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}
