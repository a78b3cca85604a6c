package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

const reconcilePageSize = 1000

// ReconciliationUseCase compares stored period totals with the sum of their
// line items and repairs any drift through the recalculator.
type ReconciliationUseCase struct {
	txManager TransactionManager
	accounts  AccountRepository
	periods   BillingPeriodRepository
	lineItems LineItemRepository
	recalc    *Recalculator
	logger    zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	accounts AccountRepository,
	periods BillingPeriodRepository,
	lineItems LineItemRepository,
	recalc *Recalculator,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager: txManager,
		accounts:  accounts,
		periods:   periods,
		lineItems: lineItems,
		recalc:    recalc,
		logger:    logger,
	}
}

// PeriodDiscrepancy is a period whose stored total disagrees with its items.
type PeriodDiscrepancy struct {
	PeriodID        string
	ReferencePeriod time.Time
	RecordedTotal   int64
	CalculatedTotal int64
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID      string
	PeriodsChecked int
	Discrepancies  []PeriodDiscrepancy
	RecordedUsed   int64
	CalculatedUsed int64
	Repaired       bool
	CheckedAt      time.Time
}

// IsReconciled reports whether stored values matched before any repair.
func (r *ReconciliationResult) IsReconciled() bool {
	return len(r.Discrepancies) == 0 && r.RecordedUsed == r.CalculatedUsed
}

// ReconcileAccount checks every period of a revolving-credit account. When
// repair is set, drifted periods and the account balances are recalculated.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string, repair bool) (*ReconciliationResult, error) {
	account, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsRevolvingCredit() {
		return nil, domain.NewValidationError("account_id", domain.ErrNotRevolvingCredit.Error())
	}

	result := &ReconciliationResult{
		AccountID:    accountID,
		RecordedUsed: account.UsedBalance,
		CheckedAt:    time.Now().UTC(),
	}

	for offset := 0; ; offset += reconcilePageSize {
		page, err := uc.periods.ListByAccount(ctx, accountID, reconcilePageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list periods: %w", err)
		}

		for _, period := range page {
			sum, err := uc.lineItems.SumForPeriod(ctx, nil, period.ID)
			if err != nil {
				return nil, fmt.Errorf("sum period %s: %w", period.ID, err)
			}

			result.PeriodsChecked++
			calculated := -sum
			if calculated != period.TotalAmount {
				result.Discrepancies = append(result.Discrepancies, PeriodDiscrepancy{
					PeriodID:        period.ID,
					ReferencePeriod: period.ReferencePeriod,
					RecordedTotal:   period.TotalAmount,
					CalculatedTotal: calculated,
				})
			}
			if period.Status != domain.PeriodStatusPaid {
				result.CalculatedUsed += calculated - period.PaidAmount
			}
		}

		if len(page) < reconcilePageSize {
			break
		}
	}

	if result.IsReconciled() || !repair {
		return result, nil
	}

	err = uc.txManager.RunInTx(ctx, func(tx Transaction) error {
		for _, d := range result.Discrepancies {
			if _, err := uc.recalc.RecalculatePeriod(ctx, tx, d.PeriodID); err != nil {
				return err
			}
		}
		_, err := uc.recalc.RecalculateAccountBalance(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("repair account %s: %w", accountID, err)
	}

	result.Repaired = true
	uc.logger.Warn().
		Str("account_id", accountID).
		Int("discrepancies", len(result.Discrepancies)).
		Int64("recorded_used", result.RecordedUsed).
		Int64("calculated_used", result.CalculatedUsed).
		Msg("account totals repaired")

	return result, nil
}
