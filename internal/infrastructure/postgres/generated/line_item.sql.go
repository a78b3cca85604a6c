
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createLineItem = `-- name: CreateLineItem :execrows
INSERT INTO line_items (id, account_id, period_id, category_id, type, amount, posted_at, description, installment_number, installment_total, parent_id, external_id, source, job_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO NOTHING
`

type CreateLineItemParams struct {
	ID                string             `json:"id"`
	AccountID         string             `json:"account_id"`
	PeriodID          pgtype.Text        `json:"period_id"`
	CategoryID        pgtype.Text        `json:"category_id"`
	Type              string             `json:"type"`
	Amount            int64              `json:"amount"`
	PostedAt          pgtype.Date        `json:"posted_at"`
	Description       string             `json:"description"`
	InstallmentNumber pgtype.Int4        `json:"installment_number"`
	InstallmentTotal  pgtype.Int4        `json:"installment_total"`
	ParentID          pgtype.Text        `json:"parent_id"`
	ExternalID        pgtype.Text        `json:"external_id"`
	Source            string             `json:"source"`
	JobID             pgtype.Text        `json:"job_id"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateLineItem(ctx context.Context, arg CreateLineItemParams) (int64, error) {
	result, err := q.db.Exec(ctx, createLineItem,
		arg.ID,
		arg.AccountID,
		arg.PeriodID,
		arg.CategoryID,
		arg.Type,
		arg.Amount,
		arg.PostedAt,
		arg.Description,
		arg.InstallmentNumber,
		arg.InstallmentTotal,
		arg.ParentID,
		arg.ExternalID,
		arg.Source,
		arg.JobID,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const findExistingExternalIDs = `-- name: FindExistingExternalIDs :many
SELECT DISTINCT external_id::text FROM line_items
WHERE account_id = $1 AND external_id = ANY($2::text[])
`

type FindExistingExternalIDsParams struct {
	AccountID   string   `json:"account_id"`
	ExternalIds []string `json:"external_ids"`
}

func (q *Queries) FindExistingExternalIDs(ctx context.Context, arg FindExistingExternalIDsParams) ([]string, error) {
	rows, err := q.db.Query(ctx, findExistingExternalIDs, arg.AccountID, arg.ExternalIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var external_id string
		if err := rows.Scan(&external_id); err != nil {
			return nil, err
		}
		items = append(items, external_id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findFingerprints = `-- name: FindFingerprints :many
SELECT DISTINCT posted_at, description, amount FROM line_items
WHERE account_id = $1 AND posted_at = ANY($2::date[]) AND description = ANY($3::text[])
`

type FindFingerprintsParams struct {
	AccountID    string        `json:"account_id"`
	Dates        []pgtype.Date `json:"dates"`
	Descriptions []string      `json:"descriptions"`
}

type FindFingerprintsRow struct {
	PostedAt    pgtype.Date `json:"posted_at"`
	Description string      `json:"description"`
	Amount      int64       `json:"amount"`
}

func (q *Queries) FindFingerprints(ctx context.Context, arg FindFingerprintsParams) ([]FindFingerprintsRow, error) {
	rows, err := q.db.Query(ctx, findFingerprints, arg.AccountID, arg.Dates, arg.Descriptions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FindFingerprintsRow{}
	for rows.Next() {
		var i FindFingerprintsRow
		if err := rows.Scan(&i.PostedAt, &i.Description, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLineItemByID = `-- name: GetLineItemByID :one
SELECT id, account_id, period_id, category_id, type, amount, posted_at, description, installment_number, installment_total, parent_id, external_id, source, job_id, created_at FROM line_items WHERE id = $1
`

func (q *Queries) GetLineItemByID(ctx context.Context, id string) (LineItem, error) {
	row := q.db.QueryRow(ctx, getLineItemByID, id)
	var i LineItem
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.PeriodID,
		&i.CategoryID,
		&i.Type,
		&i.Amount,
		&i.PostedAt,
		&i.Description,
		&i.InstallmentNumber,
		&i.InstallmentTotal,
		&i.ParentID,
		&i.ExternalID,
		&i.Source,
		&i.JobID,
		&i.CreatedAt,
	)
	return i, err
}

const listLineItemsByPeriod = `-- name: ListLineItemsByPeriod :many
SELECT id, account_id, period_id, category_id, type, amount, posted_at, description, installment_number, installment_total, parent_id, external_id, source, job_id, created_at FROM line_items
WHERE period_id = $1
ORDER BY posted_at, id
LIMIT $2 OFFSET $3
`

type ListLineItemsByPeriodParams struct {
	PeriodID pgtype.Text `json:"period_id"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListLineItemsByPeriod(ctx context.Context, arg ListLineItemsByPeriodParams) ([]LineItem, error) {
	rows, err := q.db.Query(ctx, listLineItemsByPeriod, arg.PeriodID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LineItem{}
	for rows.Next() {
		var i LineItem
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.PeriodID,
			&i.CategoryID,
			&i.Type,
			&i.Amount,
			&i.PostedAt,
			&i.Description,
			&i.InstallmentNumber,
			&i.InstallmentTotal,
			&i.ParentID,
			&i.ExternalID,
			&i.Source,
			&i.JobID,
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

const reassignLineItemCategory = `-- name: ReassignLineItemCategory :execrows
UPDATE line_items SET category_id = $2 WHERE category_id = $1
`

type ReassignLineItemCategoryParams struct {
	SourceID pgtype.Text `json:"source_id"`
	TargetID pgtype.Text `json:"target_id"`
}

func (q *Queries) ReassignLineItemCategory(ctx context.Context, arg ReassignLineItemCategoryParams) (int64, error) {
	result, err := q.db.Exec(ctx, reassignLineItemCategory, arg.SourceID, arg.TargetID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const sumLineItemsForPeriod = `-- name: SumLineItemsForPeriod :one
SELECT COALESCE(SUM(amount), 0)::BIGINT AS total FROM line_items
WHERE period_id = $1 AND type <> 'payment'
`

func (q *Queries) SumLineItemsForPeriod(ctx context.Context, periodID pgtype.Text) (int64, error) {
	row := q.db.QueryRow(ctx, sumLineItemsForPeriod, periodID)
	var total int64
	err := row.Scan(&total)
	return total, err
}
