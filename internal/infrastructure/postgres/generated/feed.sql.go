
package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createFeedLink = `-- name: CreateFeedLink :exec
INSERT INTO feed_links (id, owner_id, account_id, provider, created_at) VALUES ($1, $2, $3, $4, $5)
`

type CreateFeedLinkParams struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	AccountID string             `json:"account_id"`
	Provider  string             `json:"provider"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateFeedLink(ctx context.Context, arg CreateFeedLinkParams) error {
	_, err := q.db.Exec(ctx, createFeedLink,
		arg.ID,
		arg.OwnerID,
		arg.AccountID,
		arg.Provider,
		arg.CreatedAt,
	)
	return err
}

const getFeedLink = `-- name: GetFeedLink :one
SELECT id, owner_id, account_id, provider, created_at FROM feed_links WHERE id = $1
`

func (q *Queries) GetFeedLink(ctx context.Context, id string) (FeedLink, error) {
	row := q.db.QueryRow(ctx, getFeedLink, id)
	var i FeedLink
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.AccountID,
		&i.Provider,
		&i.CreatedAt,
	)
	return i, err
}

const listStagedFeedTransactions = `-- name: ListStagedFeedTransactions :many
SELECT link_id, provider_id, posted_at, description, amount, type, category_id, created_at FROM feed_transactions
WHERE link_id = $1 AND provider_id = ANY($2::text[])
ORDER BY posted_at, provider_id
`

type ListStagedFeedTransactionsParams struct {
	LinkID      string   `json:"link_id"`
	ProviderIds []string `json:"provider_ids"`
}

func (q *Queries) ListStagedFeedTransactions(ctx context.Context, arg ListStagedFeedTransactionsParams) ([]FeedTransaction, error) {
	rows, err := q.db.Query(ctx, listStagedFeedTransactions, arg.LinkID, arg.ProviderIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FeedTransaction{}
	for rows.Next() {
		var i FeedTransaction
		if err := rows.Scan(
			&i.LinkID,
			&i.ProviderID,
			&i.PostedAt,
			&i.Description,
			&i.Amount,
			&i.Type,
			&i.CategoryID,
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

const stageFeedTransaction = `-- name: StageFeedTransaction :execrows
INSERT INTO feed_transactions (link_id, provider_id, posted_at, description, amount, type, category_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (link_id, provider_id) DO NOTHING
`

type StageFeedTransactionParams struct {
	LinkID      string             `json:"link_id"`
	ProviderID  string             `json:"provider_id"`
	PostedAt    pgtype.Date        `json:"posted_at"`
	Description string             `json:"description"`
	Amount      int64              `json:"amount"`
	Type        string             `json:"type"`
	CategoryID  pgtype.Text        `json:"category_id"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) StageFeedTransaction(ctx context.Context, arg StageFeedTransactionParams) (int64, error) {
	result, err := q.db.Exec(ctx, stageFeedTransaction,
		arg.LinkID,
		arg.ProviderID,
		arg.PostedAt,
		arg.Description,
		arg.Amount,
		arg.Type,
		arg.CategoryID,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
