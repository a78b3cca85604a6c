package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// PeriodService resolves and lazily creates billing periods.
type PeriodService struct {
	periods BillingPeriodRepository
	idGen   IDGenerator
	metrics MetricsRecorder
	logger  zerolog.Logger
}

// NewPeriodService creates a new PeriodService.
func NewPeriodService(periods BillingPeriodRepository, idGen IDGenerator, metrics MetricsRecorder, logger zerolog.Logger) *PeriodService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &PeriodService{
		periods: periods,
		idGen:   idGen,
		metrics: metrics,
		logger:  logger,
	}
}

// GetOrCreate returns the single period of account that postedAt falls into,
// creating it when missing. A concurrent insert of the same period is not an
// error: the winner's row is returned.
func (s *PeriodService) GetOrCreate(ctx context.Context, tx Transaction, account *domain.Account, postedAt time.Time) (*domain.BillingPeriod, error) {
	if !account.IsRevolvingCredit() {
		return nil, domain.ErrNotRevolvingCredit
	}

	dates := domain.ResolvePeriod(postedAt, account.ClosingDay, account.DueDay)

	period, err := s.periods.GetByKey(ctx, tx, account.ID, dates.ReferencePeriod)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, domain.ErrPeriodNotFound) {
		return nil, fmt.Errorf("lookup period: %w", err)
	}

	period = domain.NewBillingPeriod(s.idGen.Generate(), account.ID, dates, time.Now().UTC())

	err = s.periods.Create(ctx, tx, period)
	switch {
	case err == nil:
		s.metrics.PeriodCreated()
		s.logger.Debug().
			Str("account_id", account.ID).
			Str("period_id", period.ID).
			Str("reference_period", dates.ReferencePeriod.Format(domain.DateLayout)).
			Msg("billing period created")
		return period, nil
	case errors.Is(err, domain.ErrDuplicatePeriod):
		winner, err := s.periods.GetByKey(ctx, tx, account.ID, dates.ReferencePeriod)
		if err != nil {
			return nil, fmt.Errorf("refetch period after conflict: %w", err)
		}
		return winner, nil
	default:
		return nil, fmt.Errorf("create period: %w", err)
	}
}

// Recalculator re-derives period totals and credit balances. It is the only
// writer of Account.UsedBalance and Account.AvailableBalance.
type Recalculator struct {
	accounts  AccountRepository
	periods   BillingPeriodRepository
	lineItems LineItemRepository
	policy    domain.MinimumDuePolicy
}

// NewRecalculator creates a new Recalculator.
func NewRecalculator(accounts AccountRepository, periods BillingPeriodRepository, lineItems LineItemRepository, policy domain.MinimumDuePolicy) *Recalculator {
	return &Recalculator{
		accounts:  accounts,
		periods:   periods,
		lineItems: lineItems,
		policy:    policy,
	}
}

// RecalculatePeriod recomputes total and minimum due from the period's line
// items. Outflows are negative, so the amount owed is the negated sum.
func (r *Recalculator) RecalculatePeriod(ctx context.Context, tx Transaction, periodID string) (*domain.BillingPeriod, error) {
	period, err := r.periods.GetByIDForUpdate(ctx, tx, periodID)
	if err != nil {
		return nil, err
	}

	sum, err := r.lineItems.SumForPeriod(ctx, tx, periodID)
	if err != nil {
		return nil, fmt.Errorf("sum period items: %w", err)
	}

	total := -sum
	period.SetTotals(total, r.policy.MinimumDue(total))
	period.UpdatedAt = time.Now().UTC()

	if err := r.periods.UpdateTotals(ctx, tx, period); err != nil {
		return nil, fmt.Errorf("update period totals: %w", err)
	}

	return period, nil
}

// RecalculateAccountBalance sets used balance to the outstanding amount over
// all non-paid periods and derives available credit from it.
func (r *Recalculator) RecalculateAccountBalance(ctx context.Context, tx Transaction, accountID string) (*domain.Account, error) {
	account, err := r.accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsRevolvingCredit() {
		return nil, domain.ErrNotRevolvingCredit
	}

	used, err := r.periods.SumOutstanding(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("sum outstanding: %w", err)
	}

	account.UsedBalance = used
	account.AvailableBalance = account.AvailableFor(used)
	account.UpdatedAt = time.Now().UTC()

	if err := r.accounts.UpdateCreditBalances(ctx, tx, account.ID, account.UsedBalance, account.AvailableBalance, account.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update credit balances: %w", err)
	}

	return account, nil
}

// PeriodSweeper moves periods along the calendar: open periods past their
// closing date close, underpaid periods past their due date become overdue.
type PeriodSweeper struct {
	periods BillingPeriodRepository
	logger  zerolog.Logger
}

// NewPeriodSweeper creates a new PeriodSweeper.
func NewPeriodSweeper(periods BillingPeriodRepository, logger zerolog.Logger) *PeriodSweeper {
	return &PeriodSweeper{periods: periods, logger: logger}
}

// SweepResult counts the periods moved by one sweep.
type SweepResult struct {
	Closed  int64 `json:"closed"`
	Overdue int64 `json:"overdue"`
}

// Sweep applies both transitions as of the given day. Overdue runs first so a
// period past both dates ends up overdue rather than closed.
func (s *PeriodSweeper) Sweep(ctx context.Context, asOf time.Time) (SweepResult, error) {
	day := domain.DateOf(asOf)

	overdue, err := s.periods.MarkOverdue(ctx, day)
	if err != nil {
		return SweepResult{}, fmt.Errorf("mark overdue: %w", err)
	}

	closed, err := s.periods.MarkClosed(ctx, day)
	if err != nil {
		return SweepResult{}, fmt.Errorf("mark closed: %w", err)
	}

	result := SweepResult{Closed: closed, Overdue: overdue}
	if closed > 0 || overdue > 0 {
		s.logger.Info().
			Int64("closed", closed).
			Int64("overdue", overdue).
			Str("as_of", day.Format(domain.DateLayout)).
			Msg("billing periods swept")
	}

	return result, nil
}
