
package generated

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrBatchAlreadyClosed = errors.New("batch already closed")
)

const createLineItems = `-- name: CreateLineItems :batchone
INSERT INTO line_items (id, account_id, period_id, category_id, type, amount, posted_at, description, installment_number, installment_total, parent_id, external_id, source, job_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO NOTHING
RETURNING id
`

type CreateLineItemsBatchResults struct {
	br     pgx.BatchResults
	tot    int
	closed bool
}

type CreateLineItemsParams struct {
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

func (q *Queries) CreateLineItems(ctx context.Context, arg []CreateLineItemsParams) *CreateLineItemsBatchResults {
	batch := &pgx.Batch{}
	for _, a := range arg {
		vals := []interface{}{
			a.ID,
			a.AccountID,
			a.PeriodID,
			a.CategoryID,
			a.Type,
			a.Amount,
			a.PostedAt,
			a.Description,
			a.InstallmentNumber,
			a.InstallmentTotal,
			a.ParentID,
			a.ExternalID,
			a.Source,
			a.JobID,
			a.CreatedAt,
		}
		batch.Queue(createLineItems, vals...)
	}
	br := q.db.SendBatch(ctx, batch)
	return &CreateLineItemsBatchResults{br, len(arg), false}
}

func (b *CreateLineItemsBatchResults) QueryRow(f func(int, string, error)) {
	defer b.br.Close()
	for t := 0; t < b.tot; t++ {
		var id string
		if b.closed {
			if f != nil {
				f(t, id, ErrBatchAlreadyClosed)
			}
			continue
		}
		row := b.br.QueryRow()
		err := row.Scan(&id)
		if f != nil {
			f(t, id, err)
		}
	}
}

func (b *CreateLineItemsBatchResults) Close() error {
	b.closed = true
	return b.br.Close()
}
