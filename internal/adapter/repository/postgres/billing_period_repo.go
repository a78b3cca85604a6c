package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/postgres/generated"
	"github.com/iho/cardledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// BillingPeriodRepository implements usecase.BillingPeriodRepository.
type BillingPeriodRepository struct {
	queries *generated.Queries
}

// NewBillingPeriodRepository creates a new BillingPeriodRepository.
func NewBillingPeriodRepository(pool *pgxpool.Pool) *BillingPeriodRepository {
	return newBillingPeriodRepository(pool)
}

func newBillingPeriodRepository(db generated.DBTX) *BillingPeriodRepository {
	return &BillingPeriodRepository{queries: generated.New(db)}
}

// Create inserts a period. A concurrent writer that already created the
// same (account, reference period) yields domain.ErrDuplicatePeriod.
func (r *BillingPeriodRepository) Create(ctx context.Context, tx usecase.Transaction, period *domain.BillingPeriod) error {
	queries := queriesFor(tx, r.queries)

	_, err := queries.CreateBillingPeriod(ctx, generated.CreateBillingPeriodParams{
		ID:              period.ID,
		AccountID:       period.AccountID,
		ReferencePeriod: timeToPgDate(period.ReferencePeriod),
		ClosingDate:     timeToPgDate(period.ClosingDate),
		DueDate:         timeToPgDate(period.DueDate),
		TotalAmount:     period.TotalAmount,
		MinimumDue:      period.MinimumDue,
		PaidAmount:      period.PaidAmount,
		Status:          string(period.Status),
		CreatedAt:       timeToPgTimestamptz(period.CreatedAt),
		UpdatedAt:       timeToPgTimestamptz(period.UpdatedAt),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrDuplicatePeriod
		}

		return err
	}

	return nil
}

// GetByKey retrieves the period of an account for a reference month.
func (r *BillingPeriodRepository) GetByKey(ctx context.Context, tx usecase.Transaction, accountID string, referencePeriod time.Time) (*domain.BillingPeriod, error) {
	queries := queriesFor(tx, r.queries)

	row, err := queries.GetBillingPeriodByKey(ctx, generated.GetBillingPeriodByKeyParams{
		AccountID:       accountID,
		ReferencePeriod: timeToPgDate(referencePeriod),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPeriodNotFound
		}

		return nil, err
	}

	return rowToBillingPeriod(row), nil
}

// GetByID retrieves a period by ID.
func (r *BillingPeriodRepository) GetByID(ctx context.Context, id string) (*domain.BillingPeriod, error) {
	row, err := r.queries.GetBillingPeriodByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPeriodNotFound
		}

		return nil, err
	}

	return rowToBillingPeriod(row), nil
}

// GetByIDForUpdate retrieves a period by ID with a FOR UPDATE lock.
func (r *BillingPeriodRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.BillingPeriod, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.GetBillingPeriodByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPeriodNotFound
		}

		return nil, err
	}

	return rowToBillingPeriod(row), nil
}

// ListByAccount lists periods newest first.
func (r *BillingPeriodRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BillingPeriod, error) {
	rows, err := r.queries.ListBillingPeriodsByAccount(ctx, generated.ListBillingPeriodsByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToBillingPeriods(rows), nil
}

// ListUnpaidForUpdate locks the account's non-paid periods, oldest due date first.
func (r *BillingPeriodRepository) ListUnpaidForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.BillingPeriod, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	rows, err := queries.ListUnpaidBillingPeriodsForUpdate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return rowsToBillingPeriods(rows), nil
}

// UpdateTotals stores the derived total, minimum due and status.
func (r *BillingPeriodRepository) UpdateTotals(ctx context.Context, tx usecase.Transaction, period *domain.BillingPeriod) error {
	queries := queriesFor(tx, r.queries)

	return queries.UpdateBillingPeriodTotals(ctx, generated.UpdateBillingPeriodTotalsParams{
		ID:          period.ID,
		TotalAmount: period.TotalAmount,
		MinimumDue:  period.MinimumDue,
		Status:      string(period.Status),
		UpdatedAt:   timeToPgTimestamptz(period.UpdatedAt),
	})
}

// UpdatePayment stores the paid amount, status and last payment date.
func (r *BillingPeriodRepository) UpdatePayment(ctx context.Context, tx usecase.Transaction, period *domain.BillingPeriod) error {
	queries := queriesFor(tx, r.queries)

	return queries.UpdateBillingPeriodPayment(ctx, generated.UpdateBillingPeriodPaymentParams{
		ID:              period.ID,
		PaidAmount:      period.PaidAmount,
		Status:          string(period.Status),
		LastPaymentDate: timePtrToPgDate(period.LastPaymentDate),
		UpdatedAt:       timeToPgTimestamptz(period.UpdatedAt),
	})
}

// SumOutstanding returns what is still owed across non-paid periods.
func (r *BillingPeriodRepository) SumOutstanding(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	return queriesFor(tx, r.queries).SumOutstanding(ctx, accountID)
}

// MarkClosed closes open periods whose closing date is before asOf.
func (r *BillingPeriodRepository) MarkClosed(ctx context.Context, asOf time.Time) (int64, error) {
	return r.queries.MarkBillingPeriodsClosed(ctx, generated.MarkBillingPeriodsClosedParams{
		AsOf:      timeToPgDate(asOf),
		UpdatedAt: timeToPgTimestamptz(time.Now().UTC()),
	})
}

// MarkOverdue flags unpaid periods whose due date is before asOf.
func (r *BillingPeriodRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return r.queries.MarkBillingPeriodsOverdue(ctx, generated.MarkBillingPeriodsOverdueParams{
		AsOf:      timeToPgDate(asOf),
		UpdatedAt: timeToPgTimestamptz(time.Now().UTC()),
	})
}

func rowToBillingPeriod(row generated.BillingPeriod) *domain.BillingPeriod {
	return &domain.BillingPeriod{
		ID:              row.ID,
		AccountID:       row.AccountID,
		ReferencePeriod: row.ReferencePeriod.Time,
		ClosingDate:     row.ClosingDate.Time,
		DueDate:         row.DueDate.Time,
		TotalAmount:     row.TotalAmount,
		MinimumDue:      row.MinimumDue,
		PaidAmount:      row.PaidAmount,
		Status:          domain.PeriodStatus(row.Status),
		LastPaymentDate: pgDateToTimePtr(row.LastPaymentDate),
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}

func rowsToBillingPeriods(rows []generated.BillingPeriod) []*domain.BillingPeriod {
	periods := make([]*domain.BillingPeriod, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, rowToBillingPeriod(row))
	}

	return periods
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
