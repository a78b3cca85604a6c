package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// Dispatcher routes a job to the handler registered for its type and owns
// the job state machine: pending -> processing -> completed | failed.
type Dispatcher struct {
	jobs     JobRepository
	handlers map[domain.JobType]JobHandler
	tracker  *ProgressTracker
	metrics  MetricsRecorder
	logger   zerolog.Logger
}

// NewDispatcher creates a new Dispatcher with no handlers registered.
func NewDispatcher(jobs JobRepository, tracker *ProgressTracker, metrics MetricsRecorder, log zerolog.Logger) *Dispatcher {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Dispatcher{
		jobs:     jobs,
		handlers: make(map[domain.JobType]JobHandler),
		tracker:  tracker,
		metrics:  metrics,
		logger:   log,
	}
}

// Register binds a handler to a job type, replacing any previous one.
func (d *Dispatcher) Register(jobType domain.JobType, h JobHandler) {
	d.handlers[jobType] = h
}

// Dispatch runs one job. Jobs already in a terminal state are skipped, so a
// redelivered id is harmless. A job found in processing was interrupted and
// is run again. Only storage failures are returned; handler failures end up
// on the job itself.
func (d *Dispatcher) Dispatch(ctx context.Context, jobID string) error {
	job, err := d.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			d.logger.Warn().Str("job_id", jobID).Msg("dispatched job does not exist, dropping")
			return nil
		}
		return fmt.Errorf("load job: %w", err)
	}

	log := d.logger.With().Str("job_id", job.ID).Str("job_type", string(job.Type)).Logger()

	switch {
	case job.Status.IsTerminal():
		log.Info().Str("status", string(job.Status)).Msg("job already finished, skipping")
		return nil

	case job.Status == domain.JobStatusPending:
		now := time.Now().UTC()
		ok, err := d.jobs.Transition(ctx, job.ID, domain.JobStatusPending, domain.JobStatusProcessing, now)
		if err != nil {
			return fmt.Errorf("start job: %w", err)
		}
		if !ok {
			log.Info().Msg("job left pending before pickup, skipping")
			return nil
		}
		job.Status = domain.JobStatusProcessing
		job.StartedAt = &now
		job.UpdatedAt = now

	default:
		log.Warn().Msg("job redelivered while processing, running again")
	}

	d.tracker.Status(ctx, job)

	started := time.Now()
	log.Info().Msg("job started")

	result, runErr := d.run(ctx, job)

	status := domain.JobStatusCompleted
	progress := job.Progress
	var summary []string

	switch {
	case runErr != nil:
		status = domain.JobStatusFailed
		summary = []string{runErr.Error()}
	case result.Failed:
		status = domain.JobStatusFailed
		progress = result.Progress
		summary = result.ErrorSummary
	default:
		progress = result.Progress
		summary = result.ErrorSummary
	}

	now := time.Now().UTC()
	if err := d.jobs.Finish(ctx, job.ID, status, progress, summary, now); err != nil {
		return fmt.Errorf("finish job: %w", err)
	}

	job.Status = status
	job.Progress = progress
	job.ErrorSummary = summary
	job.UpdatedAt = now
	job.FinishedAt = &now
	d.tracker.Status(ctx, job)

	elapsed := time.Since(started)
	d.metrics.JobFinished(job.Type, status, elapsed)

	event := log.Info()
	if status == domain.JobStatusFailed {
		event = log.Warn().Err(runErr)
	}
	event.
		Str("status", string(status)).
		Int("imported", progress.Imported).
		Int("skipped", progress.Skipped).
		Int("bill_items_created", progress.BillItemsCreated).
		Dur("elapsed", elapsed).
		Msg("job finished")

	return nil
}

func (d *Dispatcher) run(ctx context.Context, job *domain.Job) (*domain.JobResult, error) {
	payload, err := domain.DecodePayload(job.Type, job.Payload)
	if err != nil {
		return nil, err
	}

	h, ok := d.handlers[job.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownJobType, job.Type)
	}

	result, err := h.Handle(ctx, job, payload)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &domain.JobResult{Progress: job.Progress}
	}
	return result, nil
}

// JobUseCase handles job submission and status queries.
type JobUseCase struct {
	jobs   JobRepository
	queue  JobQueue
	cache  ProgressCache
	idGen  IDGenerator
	logger zerolog.Logger
}

// NewJobUseCase creates a new JobUseCase. cache may be nil.
func NewJobUseCase(jobs JobRepository, queue JobQueue, cache ProgressCache, idGen IDGenerator, log zerolog.Logger) *JobUseCase {
	return &JobUseCase{
		jobs:   jobs,
		queue:  queue,
		cache:  cache,
		idGen:  idGen,
		logger: log,
	}
}

// SubmitJobInput is the input for submitting a job.
type SubmitJobInput struct {
	OwnerID string
	Type    domain.JobType
	Payload json.RawMessage
}

// Submit validates and stores a pending job, then queues it. A queueing
// failure is logged only: the job stays pending and is queued again by the
// worker on startup.
func (uc *JobUseCase) Submit(ctx context.Context, input SubmitJobInput) (*domain.Job, error) {
	payload, err := domain.DecodePayload(input.Type, input.Payload)
	if err != nil {
		return nil, err
	}

	ownerID, err := resolveOwner(input.OwnerID, payload)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uc.idGen.Generate(),
		OwnerID:   ownerID,
		Type:      input.Type,
		Payload:   input.Payload,
		Status:    domain.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := uc.queue.Enqueue(ctx, job.ID); err != nil {
		uc.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to enqueue job")
	}

	return job, nil
}

func resolveOwner(ownerID string, payload domain.Payload) (string, error) {
	var payloadOwner string
	switch p := payload.(type) {
	case *domain.ManualTransactionPayload:
		payloadOwner = p.OwnerID
	case *domain.BotOperationPayload:
		payloadOwner = p.OwnerID
	}

	switch {
	case payloadOwner == "":
		return ownerID, nil
	case ownerID == "":
		return payloadOwner, nil
	case ownerID != payloadOwner:
		return "", domain.NewValidationError("owner_id", "does not match the authenticated owner")
	}
	return ownerID, nil
}

// Get returns a job. Progress still in flight is read from the cache when it
// is newer than the stored row.
func (uc *JobUseCase) Get(ctx context.Context, id string) (*domain.Job, error) {
	job, err := uc.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache == nil || job.Status.IsTerminal() {
		return job, nil
	}

	snapshot, err := uc.cache.Get(ctx, id)
	if err != nil {
		uc.logger.Warn().Err(err).Str("job_id", id).Msg("failed to read cached progress")
		return job, nil
	}

	if snapshot != nil && snapshot.UpdatedAt.After(job.UpdatedAt) {
		job.Status = snapshot.Status
		job.Progress = snapshot.Progress
		job.UpdatedAt = snapshot.UpdatedAt
	}

	return job, nil
}

// Cancel cancels a job that has not started yet.
func (uc *JobUseCase) Cancel(ctx context.Context, id string) (*domain.Job, error) {
	ok, err := uc.jobs.Transition(ctx, id, domain.JobStatusPending, domain.JobStatusCancelled, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("cancel job: %w", err)
	}

	job, err := uc.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrJobNotCancellable
	}

	if uc.cache != nil {
		err := uc.cache.Put(ctx, ProgressSnapshot{
			JobID:     job.ID,
			Status:    job.Status,
			Progress:  job.Progress,
			UpdatedAt: job.UpdatedAt,
		})
		if err != nil {
			uc.logger.Warn().Err(err).Str("job_id", id).Msg("failed to cache job status")
		}
	}

	return job, nil
}

// ListErrors returns the error log of a job.
func (uc *JobUseCase) ListErrors(ctx context.Context, id string, limit, offset int) ([]*domain.JobError, error) {
	if _, err := uc.jobs.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return uc.jobs.ListErrors(ctx, id, limit, offset)
}

// Requeue queues every job still in status again and returns how many were
// queued. Dispatch skips jobs that finished in the meantime.
func (uc *JobUseCase) Requeue(ctx context.Context, status domain.JobStatus, limit int) (int, error) {
	jobs, err := uc.jobs.ListByStatus(ctx, status, limit)
	if err != nil {
		return 0, fmt.Errorf("list jobs: %w", err)
	}

	queued := 0
	for _, job := range jobs {
		if err := uc.queue.Enqueue(ctx, job.ID); err != nil {
			return queued, fmt.Errorf("enqueue job %s: %w", job.ID, err)
		}
		queued++
	}

	return queued, nil
}
