package core

import "time"

// Redis keys for the publication indexing queue.
const (
	PendingQueueKey    = "cms:index:pending"
	ProcessingQueueKey = "cms:index:processing"
	AttemptsKey        = "cms:index:attempts"
	// DefaultVisibilityTimeout is how long a reserved job stays invisible before reclaim.
	DefaultVisibilityTimeout = 30 * time.Second
	// MaxIndexAttempts bounds retries of a failing job.
	MaxIndexAttempts = 3
)
