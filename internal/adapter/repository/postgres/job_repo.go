package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/postgres/generated"
)

// JobRepository implements usecase.JobRepository.
type JobRepository struct {
	queries *generated.Queries
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return newJobRepository(pool)
}

func newJobRepository(db generated.DBTX) *JobRepository {
	return &JobRepository{queries: generated.New(db)}
}

// Create stores a new job.
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	return r.queries.CreateJob(ctx, generated.CreateJobParams{
		ID:        job.ID,
		OwnerID:   job.OwnerID,
		Type:      string(job.Type),
		Payload:   job.Payload,
		Status:    string(job.Status),
		CreatedAt: timeToPgTimestamptz(job.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(job.UpdatedAt),
	})
}

// GetByID retrieves a job by ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row, err := r.queries.GetJobByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}

		return nil, err
	}

	return rowToJob(row), nil
}

// Transition is a compare-and-set on the job status.
func (r *JobRepository) Transition(ctx context.Context, id string, from, to domain.JobStatus, at time.Time) (bool, error) {
	n, err := r.queries.TransitionJob(ctx, generated.TransitionJobParams{
		ID:         id,
		FromStatus: string(from),
		ToStatus:   string(to),
		UpdatedAt:  timeToPgTimestamptz(at),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// UpdateProgress stores the progress counters.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress domain.JobProgress, at time.Time) error {
	return r.queries.UpdateJobProgress(ctx, generated.UpdateJobProgressParams{
		ID:               id,
		Processed:        int32(progress.Processed),
		Total:            int32(progress.Total),
		Imported:         int32(progress.Imported),
		Skipped:          int32(progress.Skipped),
		BillItemsCreated: int32(progress.BillItemsCreated),
		UpdatedAt:        timeToPgTimestamptz(at),
	})
}

// Finish records the terminal status, final counters and error summary.
func (r *JobRepository) Finish(ctx context.Context, id string, status domain.JobStatus, progress domain.JobProgress, summary []string, at time.Time) error {
	if summary == nil {
		summary = []string{}
	}

	return r.queries.FinishJob(ctx, generated.FinishJobParams{
		ID:               id,
		Status:           string(status),
		Processed:        int32(progress.Processed),
		Total:            int32(progress.Total),
		Imported:         int32(progress.Imported),
		Skipped:          int32(progress.Skipped),
		BillItemsCreated: int32(progress.BillItemsCreated),
		ErrorSummary:     summary,
		FinishedAt:       timeToPgTimestamptz(at),
	})
}

// AppendError adds an entry to the job's error log.
func (r *JobRepository) AppendError(ctx context.Context, jobErr domain.JobError) error {
	return r.queries.AppendJobError(ctx, generated.AppendJobErrorParams{
		JobID:       jobErr.JobID,
		BatchNumber: int32(jobErr.BatchNumber),
		Message:     jobErr.Message,
		CreatedAt:   timeToPgTimestamptz(jobErr.CreatedAt),
	})
}

// ListErrors lists a job's errors in insertion order.
func (r *JobRepository) ListErrors(ctx context.Context, jobID string, limit, offset int) ([]*domain.JobError, error) {
	rows, err := r.queries.ListJobErrors(ctx, generated.ListJobErrorsParams{
		JobID:  jobID,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	errs := make([]*domain.JobError, 0, len(rows))
	for _, row := range rows {
		errs = append(errs, &domain.JobError{
			JobID:       row.JobID,
			BatchNumber: int(row.BatchNumber),
			Message:     row.Message,
			CreatedAt:   row.CreatedAt.Time,
		})
	}

	return errs, nil
}

// ListByStatus lists the oldest jobs in a status.
func (r *JobRepository) ListByStatus(ctx context.Context, status domain.JobStatus, limit int) ([]*domain.Job, error) {
	rows, err := r.queries.ListJobsByStatus(ctx, generated.ListJobsByStatusParams{
		Status: string(status),
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, err
	}

	jobs := make([]*domain.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, rowToJob(row))
	}

	return jobs, nil
}

func rowToJob(row generated.Job) *domain.Job {
	return &domain.Job{
		ID:      row.ID,
		OwnerID: row.OwnerID,
		Type:    domain.JobType(row.Type),
		Payload: row.Payload,
		Status:  domain.JobStatus(row.Status),
		Progress: domain.JobProgress{
			Processed:        int(row.Processed),
			Total:            int(row.Total),
			Imported:         int(row.Imported),
			Skipped:          int(row.Skipped),
			BillItemsCreated: int(row.BillItemsCreated),
		},
		ErrorSummary: row.ErrorSummary,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		StartedAt:    pgTimestamptzToTimePtr(row.StartedAt),
		FinishedAt:   pgTimestamptzToTimePtr(row.FinishedAt),
	}
}
