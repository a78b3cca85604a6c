package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/postgres/generated"
	"github.com/iho/cardledger/internal/usecase"
)

// LineItemRepository implements usecase.LineItemRepository.
type LineItemRepository struct {
	queries *generated.Queries
}

// NewLineItemRepository creates a new LineItemRepository.
func NewLineItemRepository(pool *pgxpool.Pool) *LineItemRepository {
	return newLineItemRepository(pool)
}

func newLineItemRepository(db generated.DBTX) *LineItemRepository {
	return &LineItemRepository{queries: generated.New(db)}
}

// Create inserts a line item. An existing id is left untouched and reported
// as false.
func (r *LineItemRepository) Create(ctx context.Context, tx usecase.Transaction, item *domain.LineItem) (bool, error) {
	queries := queriesFor(tx, r.queries)

	p := lineItemToParams(item)
	n, err := queries.CreateLineItem(ctx, generated.CreateLineItemParams(p))
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// BulkCreate sends all items in one round trip and counts the new rows.
func (r *LineItemRepository) BulkCreate(ctx context.Context, tx usecase.Transaction, items []*domain.LineItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	queries := queriesFor(tx, r.queries)

	params := make([]generated.CreateLineItemsParams, 0, len(items))
	for _, item := range items {
		params = append(params, lineItemToParams(item))
	}

	var (
		created  int
		batchErr error
	)

	queries.CreateLineItems(ctx, params).QueryRow(func(_ int, _ string, err error) {
		switch {
		case err == nil:
			created++
		case errors.Is(err, pgx.ErrNoRows):
		case batchErr == nil:
			batchErr = err
		}
	})
	if batchErr != nil {
		return 0, batchErr
	}

	return created, nil
}

// GetByID retrieves a line item by ID.
func (r *LineItemRepository) GetByID(ctx context.Context, id string) (*domain.LineItem, error) {
	row, err := r.queries.GetLineItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLineItemNotFound
		}

		return nil, err
	}

	return rowToLineItem(row), nil
}

// ListByPeriod lists a period's items by posting date.
func (r *LineItemRepository) ListByPeriod(ctx context.Context, periodID string, limit, offset int) ([]*domain.LineItem, error) {
	rows, err := r.queries.ListLineItemsByPeriod(ctx, generated.ListLineItemsByPeriodParams{
		PeriodID: pgtype.Text{String: periodID, Valid: true},
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return nil, err
	}

	items := make([]*domain.LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToLineItem(row))
	}

	return items, nil
}

// SumForPeriod sums signed amounts of the period's non-payment items.
func (r *LineItemRepository) SumForPeriod(ctx context.Context, tx usecase.Transaction, periodID string) (int64, error) {
	return queriesFor(tx, r.queries).SumLineItemsForPeriod(ctx, pgtype.Text{String: periodID, Valid: true})
}

// FindExternalIDs returns which of externalIDs already exist on the account.
func (r *LineItemRepository) FindExternalIDs(ctx context.Context, accountID string, externalIDs []string) ([]string, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}

	return r.queries.FindExistingExternalIDs(ctx, generated.FindExistingExternalIDsParams{
		AccountID:   accountID,
		ExternalIds: externalIDs,
	})
}

// FindFingerprints returns stored fingerprints whose date and description
// are among the candidates. Callers compare amounts themselves.
func (r *LineItemRepository) FindFingerprints(ctx context.Context, accountID string, dates []time.Time, descriptions []string) ([]domain.Fingerprint, error) {
	if len(dates) == 0 || len(descriptions) == 0 {
		return nil, nil
	}

	pgDates := make([]pgtype.Date, 0, len(dates))
	for _, d := range dates {
		pgDates = append(pgDates, timeToPgDate(d))
	}

	rows, err := r.queries.FindFingerprints(ctx, generated.FindFingerprintsParams{
		AccountID:    accountID,
		Dates:        pgDates,
		Descriptions: descriptions,
	})
	if err != nil {
		return nil, err
	}

	fingerprints := make([]domain.Fingerprint, 0, len(rows))
	for _, row := range rows {
		fingerprints = append(fingerprints, domain.NewFingerprint(row.PostedAt.Time, row.Description, row.Amount))
	}

	return fingerprints, nil
}

// ReassignCategory moves every line item from sourceID to targetID.
func (r *LineItemRepository) ReassignCategory(ctx context.Context, tx usecase.Transaction, sourceID, targetID string) (int64, error) {
	queries := queriesFor(tx, r.queries)

	return queries.ReassignLineItemCategory(ctx, generated.ReassignLineItemCategoryParams{
		SourceID: pgtype.Text{String: sourceID, Valid: true},
		TargetID: pgtype.Text{String: targetID, Valid: true},
	})
}

func lineItemToParams(item *domain.LineItem) generated.CreateLineItemsParams {
	return generated.CreateLineItemsParams{
		ID:                item.ID,
		AccountID:         item.AccountID,
		PeriodID:          stringPtrToPgText(item.PeriodID),
		CategoryID:        stringPtrToPgText(item.CategoryID),
		Type:              string(item.Type),
		Amount:            item.Amount,
		PostedAt:          timeToPgDate(item.PostedAt),
		Description:       item.Description,
		InstallmentNumber: intPtrToPgInt4(item.InstallmentNumber),
		InstallmentTotal:  intPtrToPgInt4(item.InstallmentTotal),
		ParentID:          stringPtrToPgText(item.ParentID),
		ExternalID:        stringPtrToPgText(item.ExternalID),
		Source:            string(item.Source),
		JobID:             stringPtrToPgText(item.JobID),
		CreatedAt:         timeToPgTimestamptz(item.CreatedAt),
	}
}

func rowToLineItem(row generated.LineItem) *domain.LineItem {
	return &domain.LineItem{
		ID:                row.ID,
		AccountID:         row.AccountID,
		PeriodID:          pgTextToStringPtr(row.PeriodID),
		CategoryID:        pgTextToStringPtr(row.CategoryID),
		Type:              domain.TransactionType(row.Type),
		Amount:            row.Amount,
		PostedAt:          row.PostedAt.Time,
		Description:       row.Description,
		InstallmentNumber: pgInt4ToIntPtr(row.InstallmentNumber),
		InstallmentTotal:  pgInt4ToIntPtr(row.InstallmentTotal),
		ParentID:          pgTextToStringPtr(row.ParentID),
		ExternalID:        pgTextToStringPtr(row.ExternalID),
		Source:            domain.Source(row.Source),
		JobID:             pgTextToStringPtr(row.JobID),
		CreatedAt:         row.CreatedAt.Time,
	}
}
