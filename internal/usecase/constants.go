package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds one chunk transaction so a stuck
	// batch cannot hold period rows locked indefinitely.
	DefaultTransactionTimeout = 30 * time.Second

	// IdempotencyKeyTTL is how long job submission idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ProgressTTL is how long a cached progress snapshot outlives its last update
	ProgressTTL = time.Hour
)
