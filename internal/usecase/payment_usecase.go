package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// PaymentAllocator applies a bill payment across the open periods of a
// revolving-credit account, oldest due date first.
type PaymentAllocator struct {
	periods   BillingPeriodRepository
	lineItems LineItemRepository
	recalc    *Recalculator
	metrics   MetricsRecorder
	logger    zerolog.Logger
}

// NewPaymentAllocator creates a new PaymentAllocator.
func NewPaymentAllocator(
	periods BillingPeriodRepository,
	lineItems LineItemRepository,
	recalc *Recalculator,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *PaymentAllocator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &PaymentAllocator{
		periods:   periods,
		lineItems: lineItems,
		recalc:    recalc,
		metrics:   metrics,
		logger:    logger,
	}
}

// PaymentInput describes one payment.
type PaymentInput struct {
	Account     *domain.Account
	Amount      int64
	PaidOn      time.Time
	Description string
	Source      domain.Source
	JobID       *string
	// AuditID is the id of the audit line item. Replaying a payment with an
	// AuditID that already exists applies nothing.
	AuditID string
}

// Allocation is the share of a payment applied to one period.
type Allocation struct {
	PeriodID string              `json:"period_id"`
	Applied  int64               `json:"applied"`
	Status   domain.PeriodStatus `json:"status"`
}

// PaymentResult reports how a payment was distributed.
type PaymentResult struct {
	Applied     int64
	Unapplied   int64
	Allocations []Allocation
	Replayed    bool
}

// Allocate records the payment and distributes it. Paid amounts never exceed
// period totals; whatever is left once every period is settled is discarded.
func (a *PaymentAllocator) Allocate(ctx context.Context, tx Transaction, in PaymentInput) (*PaymentResult, error) {
	if !in.Account.IsRevolvingCredit() {
		return nil, domain.NewValidationError("account_id", domain.ErrNotRevolvingCredit.Error())
	}
	if in.Amount <= 0 {
		return nil, domain.NewValidationError("amount", domain.ErrInvalidAmount.Error())
	}

	description := in.Description
	if description == "" {
		description = "Bill payment"
	}

	audit := &domain.LineItem{
		ID:          in.AuditID,
		AccountID:   in.Account.ID,
		Type:        domain.TransactionPayment,
		Amount:      in.Amount,
		PostedAt:    domain.DateOf(in.PaidOn),
		Description: domain.NormalizeDescription(description),
		Source:      in.Source,
		JobID:       in.JobID,
		CreatedAt:   time.Now().UTC(),
	}

	inserted, err := a.lineItems.Create(ctx, tx, audit)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	if !inserted {
		a.logger.Info().
			Str("account_id", in.Account.ID).
			Str("payment_id", in.AuditID).
			Msg("payment already recorded, skipping allocation")
		return &PaymentResult{Replayed: true}, nil
	}

	periods, err := a.periods.ListUnpaidForUpdate(ctx, tx, in.Account.ID)
	if err != nil {
		return nil, fmt.Errorf("list unpaid periods: %w", err)
	}

	result := &PaymentResult{}
	remaining := in.Amount
	now := time.Now().UTC()

	for _, period := range periods {
		if remaining <= 0 {
			break
		}

		delta := period.ApplyPayment(remaining, in.PaidOn)
		if delta == 0 {
			continue
		}

		period.UpdatedAt = now
		if err := a.periods.UpdatePayment(ctx, tx, period); err != nil {
			return nil, fmt.Errorf("update period %s: %w", period.ID, err)
		}

		remaining -= delta
		result.Applied += delta
		result.Allocations = append(result.Allocations, Allocation{
			PeriodID: period.ID,
			Applied:  delta,
			Status:   period.Status,
		})
	}

	result.Unapplied = remaining

	if _, err := a.recalc.RecalculateAccountBalance(ctx, tx, in.Account.ID); err != nil {
		return nil, err
	}

	a.metrics.PaymentApplied(result.Applied, result.Unapplied)

	if result.Unapplied > 0 {
		a.logger.Warn().
			Str("account_id", in.Account.ID).
			Int64("amount", in.Amount).
			Int64("unapplied", result.Unapplied).
			Msg("payment exceeds outstanding balance, excess discarded")
	}

	return result, nil
}
