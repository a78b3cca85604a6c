package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// ProgressTracker persists job progress to the job store and mirrors it to
// the progress cache. Cache failures are logged and never fail the job.
type ProgressTracker struct {
	jobs   JobRepository
	cache  ProgressCache
	logger zerolog.Logger
}

// NewProgressTracker creates a new ProgressTracker. cache may be nil.
func NewProgressTracker(jobs JobRepository, cache ProgressCache, logger zerolog.Logger) *ProgressTracker {
	return &ProgressTracker{jobs: jobs, cache: cache, logger: logger}
}

// Update stores the current counters of a running job.
func (t *ProgressTracker) Update(ctx context.Context, job *domain.Job, progress domain.JobProgress) error {
	now := time.Now().UTC()
	job.Progress = progress
	job.UpdatedAt = now

	if err := t.jobs.UpdateProgress(ctx, job.ID, progress, now); err != nil {
		return err
	}

	t.mirror(ctx, job)
	return nil
}

// RecordError appends a chunk failure to the job error log.
func (t *ProgressTracker) RecordError(ctx context.Context, jobErr domain.JobError) {
	if err := t.jobs.AppendError(ctx, jobErr); err != nil {
		t.logger.Error().
			Err(err).
			Str("job_id", jobErr.JobID).
			Int("batch", jobErr.BatchNumber).
			Msg("failed to append job error")
	}
}

// Status mirrors a status change to the cache.
func (t *ProgressTracker) Status(ctx context.Context, job *domain.Job) {
	t.mirror(ctx, job)
}

func (t *ProgressTracker) mirror(ctx context.Context, job *domain.Job) {
	if t.cache == nil {
		return
	}

	err := t.cache.Put(ctx, ProgressSnapshot{
		JobID:     job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		UpdatedAt: job.UpdatedAt,
	})
	if err != nil {
		t.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to cache job progress")
	}
}
