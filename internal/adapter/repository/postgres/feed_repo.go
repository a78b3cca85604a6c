package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/postgres/generated"
)

// FeedRepository implements usecase.FeedRepository.
type FeedRepository struct {
	queries *generated.Queries
}

// NewFeedRepository creates a new FeedRepository.
func NewFeedRepository(pool *pgxpool.Pool) *FeedRepository {
	return newFeedRepository(pool)
}

func newFeedRepository(db generated.DBTX) *FeedRepository {
	return &FeedRepository{queries: generated.New(db)}
}

// CreateLink stores a feed link.
func (r *FeedRepository) CreateLink(ctx context.Context, link *domain.FeedLink) error {
	return r.queries.CreateFeedLink(ctx, generated.CreateFeedLinkParams{
		ID:        link.ID,
		OwnerID:   link.OwnerID,
		AccountID: link.AccountID,
		Provider:  link.Provider,
		CreatedAt: timeToPgTimestamptz(link.CreatedAt),
	})
}

// GetLink retrieves a feed link by ID.
func (r *FeedRepository) GetLink(ctx context.Context, id string) (*domain.FeedLink, error) {
	row, err := r.queries.GetFeedLink(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFeedLinkNotFound
		}

		return nil, err
	}

	return &domain.FeedLink{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		AccountID: row.AccountID,
		Provider:  row.Provider,
		CreatedAt: row.CreatedAt.Time,
	}, nil
}

// Stage stores provider records; records already staged for the link are
// skipped. It returns how many were new.
func (r *FeedRepository) Stage(ctx context.Context, txs []*domain.FeedTransaction) (int, error) {
	staged := 0
	for _, t := range txs {
		n, err := r.queries.StageFeedTransaction(ctx, generated.StageFeedTransactionParams{
			LinkID:      t.LinkID,
			ProviderID:  t.ProviderID,
			PostedAt:    timeToPgDate(t.PostedAt),
			Description: t.Description,
			Amount:      t.Amount,
			Type:        string(t.Type),
			CategoryID:  stringPtrToPgText(t.CategoryID),
			CreatedAt:   timeToPgTimestamptz(t.CreatedAt),
		})
		if err != nil {
			return staged, err
		}
		staged += int(n)
	}

	return staged, nil
}

// ListStaged returns the link's staged records among providerIDs.
func (r *FeedRepository) ListStaged(ctx context.Context, linkID string, providerIDs []string) ([]*domain.FeedTransaction, error) {
	rows, err := r.queries.ListStagedFeedTransactions(ctx, generated.ListStagedFeedTransactionsParams{
		LinkID:      linkID,
		ProviderIds: providerIDs,
	})
	if err != nil {
		return nil, err
	}

	txs := make([]*domain.FeedTransaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, &domain.FeedTransaction{
			LinkID:      row.LinkID,
			ProviderID:  row.ProviderID,
			PostedAt:    row.PostedAt.Time,
			Description: row.Description,
			Amount:      row.Amount,
			Type:        domain.TransactionType(row.Type),
			CategoryID:  pgTextToStringPtr(row.CategoryID),
			CreatedAt:   row.CreatedAt.Time,
		})
	}

	return txs, nil
}
