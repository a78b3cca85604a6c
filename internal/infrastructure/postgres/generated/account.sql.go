
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const adjustAccountBalance = `-- name: AdjustAccountBalance :execrows
UPDATE accounts SET balance = balance + $2, updated_at = $3 WHERE id = $1
`

type AdjustAccountBalanceParams struct {
	ID        string             `json:"id"`
	Balance   int64              `json:"balance"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) AdjustAccountBalance(ctx context.Context, arg AdjustAccountBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, adjustAccountBalance, arg.ID, arg.Balance, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (id, owner_id, name, kind, currency, balance, credit_limit, closing_day, due_day, used_balance, available_balance, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

type CreateAccountParams struct {
	ID               string             `json:"id"`
	OwnerID          string             `json:"owner_id"`
	Name             string             `json:"name"`
	Kind             string             `json:"kind"`
	Currency         string             `json:"currency"`
	Balance          int64              `json:"balance"`
	CreditLimit      int64              `json:"credit_limit"`
	ClosingDay       int32              `json:"closing_day"`
	DueDay           int32              `json:"due_day"`
	UsedBalance      int64              `json:"used_balance"`
	AvailableBalance int64              `json:"available_balance"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.Exec(ctx, createAccount,
		arg.ID,
		arg.OwnerID,
		arg.Name,
		arg.Kind,
		arg.Currency,
		arg.Balance,
		arg.CreditLimit,
		arg.ClosingDay,
		arg.DueDay,
		arg.UsedBalance,
		arg.AvailableBalance,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT id, owner_id, name, kind, currency, balance, credit_limit, closing_day, due_day, used_balance, available_balance, created_at, updated_at FROM accounts WHERE id = $1
`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByID, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Kind,
		&i.Currency,
		&i.Balance,
		&i.CreditLimit,
		&i.ClosingDay,
		&i.DueDay,
		&i.UsedBalance,
		&i.AvailableBalance,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByIDForUpdate = `-- name: GetAccountByIDForUpdate :one
SELECT id, owner_id, name, kind, currency, balance, credit_limit, closing_day, due_day, used_balance, available_balance, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetAccountByIDForUpdate(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByIDForUpdate, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Kind,
		&i.Currency,
		&i.Balance,
		&i.CreditLimit,
		&i.ClosingDay,
		&i.DueDay,
		&i.UsedBalance,
		&i.AvailableBalance,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAccountsByOwner = `-- name: ListAccountsByOwner :many
SELECT id, owner_id, name, kind, currency, balance, credit_limit, closing_day, due_day, used_balance, available_balance, created_at, updated_at FROM accounts WHERE owner_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3
`

type ListAccountsByOwnerParams struct {
	OwnerID string `json:"owner_id"`
	Limit   int32  `json:"limit"`
	Offset  int32  `json:"offset"`
}

func (q *Queries) ListAccountsByOwner(ctx context.Context, arg ListAccountsByOwnerParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccountsByOwner, arg.OwnerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Name,
			&i.Kind,
			&i.Currency,
			&i.Balance,
			&i.CreditLimit,
			&i.ClosingDay,
			&i.DueDay,
			&i.UsedBalance,
			&i.AvailableBalance,
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

const updateAccountCreditBalances = `-- name: UpdateAccountCreditBalances :execrows
UPDATE accounts SET used_balance = $2, available_balance = $3, updated_at = $4 WHERE id = $1
`

type UpdateAccountCreditBalancesParams struct {
	ID               string             `json:"id"`
	UsedBalance      int64              `json:"used_balance"`
	AvailableBalance int64              `json:"available_balance"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateAccountCreditBalances(ctx context.Context, arg UpdateAccountCreditBalancesParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateAccountCreditBalances,
		arg.ID,
		arg.UsedBalance,
		arg.AvailableBalance,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
