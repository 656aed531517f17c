package tasks

import "time"

// Config tunes the shared queue machinery. Retry, timeout and retention
// policy is not configured here: every task type (cover fetch, page count,
// metadata enrichment) declares its own in its Config() method, sized to
// how expensive the work is.
type Config struct {
	// Workers is the number of goroutines pulling tasks off the queue.
	Workers int

	// ReleaseAfter returns a claimed but unfinished task to the queue,
	// covering workers that died mid-task.
	ReleaseAfter time.Duration

	// CleanupInterval is how often completed tasks past their retention
	// are purged.
	CleanupInterval time.Duration
}

// DefaultConfig returns the queue tuning used when nothing is configured.
// Two workers are plenty: cover fetches and enrichment calls are
// rate-limited upstream, and page counting is the only CPU-bound queue.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
