
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const appendJobError = `-- name: AppendJobError :exec
INSERT INTO job_errors (job_id, batch_number, message, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (job_id, batch_number, md5(message)) DO NOTHING
`

type AppendJobErrorParams struct {
	JobID       string             `json:"job_id"`
	BatchNumber int32              `json:"batch_number"`
	Message     string             `json:"message"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) AppendJobError(ctx context.Context, arg AppendJobErrorParams) error {
	_, err := q.db.Exec(ctx, appendJobError,
		arg.JobID,
		arg.BatchNumber,
		arg.Message,
		arg.CreatedAt,
	)
	return err
}

const createJob = `-- name: CreateJob :exec
INSERT INTO jobs (id, owner_id, type, payload, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateJobParams struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	Type      string             `json:"type"`
	Payload   []byte             `json:"payload"`
	Status    string             `json:"status"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) error {
	_, err := q.db.Exec(ctx, createJob,
		arg.ID,
		arg.OwnerID,
		arg.Type,
		arg.Payload,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const finishJob = `-- name: FinishJob :exec
UPDATE jobs SET status = $2, processed = $3, total = $4, imported = $5, skipped = $6, bill_items_created = $7,
    error_summary = $8, finished_at = $9, updated_at = $9
WHERE id = $1
`

type FinishJobParams struct {
	ID               string             `json:"id"`
	Status           string             `json:"status"`
	Processed        int32              `json:"processed"`
	Total            int32              `json:"total"`
	Imported         int32              `json:"imported"`
	Skipped          int32              `json:"skipped"`
	BillItemsCreated int32              `json:"bill_items_created"`
	ErrorSummary     []string           `json:"error_summary"`
	FinishedAt       pgtype.Timestamptz `json:"finished_at"`
}

func (q *Queries) FinishJob(ctx context.Context, arg FinishJobParams) error {
	_, err := q.db.Exec(ctx, finishJob,
		arg.ID,
		arg.Status,
		arg.Processed,
		arg.Total,
		arg.Imported,
		arg.Skipped,
		arg.BillItemsCreated,
		arg.ErrorSummary,
		arg.FinishedAt,
	)
	return err
}

const getJobByID = `-- name: GetJobByID :one
SELECT id, owner_id, type, payload, status, processed, total, imported, skipped, bill_items_created, error_summary, created_at, updated_at, started_at, finished_at FROM jobs WHERE id = $1
`

func (q *Queries) GetJobByID(ctx context.Context, id string) (Job, error) {
	row := q.db.QueryRow(ctx, getJobByID, id)
	var i Job
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Type,
		&i.Payload,
		&i.Status,
		&i.Processed,
		&i.Total,
		&i.Imported,
		&i.Skipped,
		&i.BillItemsCreated,
		&i.ErrorSummary,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.StartedAt,
		&i.FinishedAt,
	)
	return i, err
}

const listJobErrors = `-- name: ListJobErrors :many
SELECT id, job_id, batch_number, message, created_at FROM job_errors WHERE job_id = $1 ORDER BY id LIMIT $2 OFFSET $3
`

type ListJobErrorsParams struct {
	JobID  string `json:"job_id"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListJobErrors(ctx context.Context, arg ListJobErrorsParams) ([]JobError, error) {
	rows, err := q.db.Query(ctx, listJobErrors, arg.JobID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []JobError{}
	for rows.Next() {
		var i JobError
		if err := rows.Scan(
			&i.ID,
			&i.JobID,
			&i.BatchNumber,
			&i.Message,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listJobsByStatus = `-- name: ListJobsByStatus :many
SELECT id, owner_id, type, payload, status, processed, total, imported, skipped, bill_items_created, error_summary, created_at, updated_at, started_at, finished_at FROM jobs
WHERE status = $1
ORDER BY created_at, id
LIMIT $2
`

type ListJobsByStatusParams struct {
	Status string `json:"status"`
	Limit  int32  `json:"limit"`
}

func (q *Queries) ListJobsByStatus(ctx context.Context, arg ListJobsByStatusParams) ([]Job, error) {
	rows, err := q.db.Query(ctx, listJobsByStatus, arg.Status, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Job{}
	for rows.Next() {
		var i Job
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Type,
			&i.Payload,
			&i.Status,
			&i.Processed,
			&i.Total,
			&i.Imported,
			&i.Skipped,
			&i.BillItemsCreated,
			&i.ErrorSummary,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.StartedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const transitionJob = `-- name: TransitionJob :execrows
UPDATE jobs SET status = $3, updated_at = $4,
    started_at = CASE WHEN $3 = 'processing' THEN $4 ELSE started_at END
WHERE id = $1 AND status = $2
`

type TransitionJobParams struct {
	ID         string             `json:"id"`
	FromStatus string             `json:"from_status"`
	ToStatus   string             `json:"to_status"`
	UpdatedAt  pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) TransitionJob(ctx context.Context, arg TransitionJobParams) (int64, error) {
	result, err := q.db.Exec(ctx, transitionJob,
		arg.ID,
		arg.FromStatus,
		arg.ToStatus,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateJobProgress = `-- name: UpdateJobProgress :exec
UPDATE jobs SET processed = $2, total = $3, imported = $4, skipped = $5, bill_items_created = $6, updated_at = $7
WHERE id = $1
`

type UpdateJobProgressParams struct {
	ID               string             `json:"id"`
	Processed        int32              `json:"processed"`
	Total            int32              `json:"total"`
	Imported         int32              `json:"imported"`
	Skipped          int32              `json:"skipped"`
	BillItemsCreated int32              `json:"bill_items_created"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateJobProgress(ctx context.Context, arg UpdateJobProgressParams) error {
	_, err := q.db.Exec(ctx, updateJobProgress,
		arg.ID,
		arg.Processed,
		arg.Total,
		arg.Imported,
		arg.Skipped,
		arg.BillItemsCreated,
		arg.UpdatedAt,
	)
	return err
}
