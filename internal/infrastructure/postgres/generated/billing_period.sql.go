
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createBillingPeriod = `-- name: CreateBillingPeriod :one
INSERT INTO billing_periods (id, account_id, reference_period, closing_date, due_date, total_amount, minimum_due, paid_amount, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (account_id, reference_period) DO NOTHING
RETURNING id
`

type CreateBillingPeriodParams struct {
	ID              string             `json:"id"`
	AccountID       string             `json:"account_id"`
	ReferencePeriod pgtype.Date        `json:"reference_period"`
	ClosingDate     pgtype.Date        `json:"closing_date"`
	DueDate         pgtype.Date        `json:"due_date"`
	TotalAmount     int64              `json:"total_amount"`
	MinimumDue      int64              `json:"minimum_due"`
	PaidAmount      int64              `json:"paid_amount"`
	Status          string             `json:"status"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateBillingPeriod(ctx context.Context, arg CreateBillingPeriodParams) (string, error) {
	row := q.db.QueryRow(ctx, createBillingPeriod,
		arg.ID,
		arg.AccountID,
		arg.ReferencePeriod,
		arg.ClosingDate,
		arg.DueDate,
		arg.TotalAmount,
		arg.MinimumDue,
		arg.PaidAmount,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var id string
	err := row.Scan(&id)
	return id, err
}

const getBillingPeriodByID = `-- name: GetBillingPeriodByID :one
SELECT id, account_id, reference_period, closing_date, due_date, total_amount, minimum_due, paid_amount, status, last_payment_date, created_at, updated_at FROM billing_periods WHERE id = $1
`

func (q *Queries) GetBillingPeriodByID(ctx context.Context, id string) (BillingPeriod, error) {
	row := q.db.QueryRow(ctx, getBillingPeriodByID, id)
	var i BillingPeriod
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.ReferencePeriod,
		&i.ClosingDate,
		&i.DueDate,
		&i.TotalAmount,
		&i.MinimumDue,
		&i.PaidAmount,
		&i.Status,
		&i.LastPaymentDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getBillingPeriodByIDForUpdate = `-- name: GetBillingPeriodByIDForUpdate :one
SELECT id, account_id, reference_period, closing_date, due_date, total_amount, minimum_due, paid_amount, status, last_payment_date, created_at, updated_at FROM billing_periods WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetBillingPeriodByIDForUpdate(ctx context.Context, id string) (BillingPeriod, error) {
	row := q.db.QueryRow(ctx, getBillingPeriodByIDForUpdate, id)
	var i BillingPeriod
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.ReferencePeriod,
		&i.ClosingDate,
		&i.DueDate,
		&i.TotalAmount,
		&i.MinimumDue,
		&i.PaidAmount,
		&i.Status,
		&i.LastPaymentDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getBillingPeriodByKey = `-- name: GetBillingPeriodByKey :one
SELECT id, account_id, reference_period, closing_date, due_date, total_amount, minimum_due, paid_amount, status, last_payment_date, created_at, updated_at FROM billing_periods WHERE account_id = $1 AND reference_period = $2
`

type GetBillingPeriodByKeyParams struct {
	AccountID       string      `json:"account_id"`
	ReferencePeriod pgtype.Date `json:"reference_period"`
}

func (q *Queries) GetBillingPeriodByKey(ctx context.Context, arg GetBillingPeriodByKeyParams) (BillingPeriod, error) {
	row := q.db.QueryRow(ctx, getBillingPeriodByKey, arg.AccountID, arg.ReferencePeriod)
	var i BillingPeriod
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.ReferencePeriod,
		&i.ClosingDate,
		&i.DueDate,
		&i.TotalAmount,
		&i.MinimumDue,
		&i.PaidAmount,
		&i.Status,
		&i.LastPaymentDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listBillingPeriodsByAccount = `-- name: ListBillingPeriodsByAccount :many
SELECT id, account_id, reference_period, closing_date, due_date, total_amount, minimum_due, paid_amount, status, last_payment_date, created_at, updated_at FROM billing_periods
WHERE account_id = $1
ORDER BY reference_period DESC
LIMIT $2 OFFSET $3
`

type ListBillingPeriodsByAccountParams struct {
	AccountID string `json:"account_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) ListBillingPeriodsByAccount(ctx context.Context, arg ListBillingPeriodsByAccountParams) ([]BillingPeriod, error) {
	rows, err := q.db.Query(ctx, listBillingPeriodsByAccount, arg.AccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BillingPeriod{}
	for rows.Next() {
		var i BillingPeriod
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.ReferencePeriod,
			&i.ClosingDate,
			&i.DueDate,
			&i.TotalAmount,
			&i.MinimumDue,
			&i.PaidAmount,
			&i.Status,
			&i.LastPaymentDate,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const listUnpaidBillingPeriodsForUpdate = `-- name: ListUnpaidBillingPeriodsForUpdate :many
SELECT id, account_id, reference_period, closing_date, due_date, total_amount, minimum_due, paid_amount, status, last_payment_date, created_at, updated_at FROM billing_periods
WHERE account_id = $1 AND status <> 'paid'
ORDER BY due_date, id
FOR UPDATE
`

func (q *Queries) ListUnpaidBillingPeriodsForUpdate(ctx context.Context, accountID string) ([]BillingPeriod, error) {
	rows, err := q.db.Query(ctx, listUnpaidBillingPeriodsForUpdate, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BillingPeriod{}
	for rows.Next() {
		var i BillingPeriod
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.ReferencePeriod,
			&i.ClosingDate,
			&i.DueDate,
			&i.TotalAmount,
			&i.MinimumDue,
			&i.PaidAmount,
			&i.Status,
			&i.LastPaymentDate,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const markBillingPeriodsClosed = `-- name: MarkBillingPeriodsClosed :execrows
UPDATE billing_periods SET status = 'closed', updated_at = $2
WHERE status = 'open' AND closing_date < $1
`

type MarkBillingPeriodsClosedParams struct {
	AsOf      pgtype.Date        `json:"as_of"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) MarkBillingPeriodsClosed(ctx context.Context, arg MarkBillingPeriodsClosedParams) (int64, error) {
	result, err := q.db.Exec(ctx, markBillingPeriodsClosed, arg.AsOf, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const markBillingPeriodsOverdue = `-- name: MarkBillingPeriodsOverdue :execrows
UPDATE billing_periods SET status = 'overdue', updated_at = $2
WHERE status IN ('open', 'closed', 'partial') AND due_date < $1 AND paid_amount < total_amount
`

type MarkBillingPeriodsOverdueParams struct {
	AsOf      pgtype.Date        `json:"as_of"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) MarkBillingPeriodsOverdue(ctx context.Context, arg MarkBillingPeriodsOverdueParams) (int64, error) {
	result, err := q.db.Exec(ctx, markBillingPeriodsOverdue, arg.AsOf, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const sumOutstanding = `-- name: SumOutstanding :one
SELECT COALESCE(SUM(total_amount - paid_amount), 0)::BIGINT AS outstanding
FROM billing_periods
WHERE account_id = $1 AND status <> 'paid'
`

func (q *Queries) SumOutstanding(ctx context.Context, accountID string) (int64, error) {
	row := q.db.QueryRow(ctx, sumOutstanding, accountID)
	var outstanding int64
	err := row.Scan(&outstanding)
	return outstanding, err
}

const updateBillingPeriodPayment = `-- name: UpdateBillingPeriodPayment :exec
UPDATE billing_periods SET paid_amount = $2, status = $3, last_payment_date = $4, updated_at = $5 WHERE id = $1
`

type UpdateBillingPeriodPaymentParams struct {
	ID              string             `json:"id"`
	PaidAmount      int64              `json:"paid_amount"`
	Status          string             `json:"status"`
	LastPaymentDate pgtype.Date        `json:"last_payment_date"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateBillingPeriodPayment(ctx context.Context, arg UpdateBillingPeriodPaymentParams) error {
	_, err := q.db.Exec(ctx, updateBillingPeriodPayment,
		arg.ID,
		arg.PaidAmount,
		arg.Status,
		arg.LastPaymentDate,
		arg.UpdatedAt,
	)
	return err
}

const updateBillingPeriodTotals = `-- name: UpdateBillingPeriodTotals :exec
UPDATE billing_periods SET total_amount = $2, minimum_due = $3, status = $4, updated_at = $5 WHERE id = $1
`

type UpdateBillingPeriodTotalsParams struct {
	ID          string             `json:"id"`
	TotalAmount int64              `json:"total_amount"`
	MinimumDue  int64              `json:"minimum_due"`
	Status      string             `json:"status"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateBillingPeriodTotals(ctx context.Context, arg UpdateBillingPeriodTotalsParams) error {
	_, err := q.db.Exec(ctx, updateBillingPeriodTotals,
		arg.ID,
		arg.TotalAmount,
		arg.MinimumDue,
		arg.Status,
		arg.UpdatedAt,
	)
	return err
}
