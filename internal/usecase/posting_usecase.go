package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/cardledger/internal/domain"
)

// PostingService writes line items onto accounts. Revolving-credit accounts
// get their items grouped into billing periods and split into installments;
// every other account gets a direct entry and a running-balance adjustment.
type PostingService struct {
	accounts  AccountRepository
	lineItems LineItemRepository
	periods   *PeriodService
	recalc    *Recalculator
	idGen     IDGenerator
}

// NewPostingService creates a new PostingService.
func NewPostingService(
	accounts AccountRepository,
	lineItems LineItemRepository,
	periods *PeriodService,
	recalc *Recalculator,
	idGen IDGenerator,
) *PostingService {
	return &PostingService{
		accounts:  accounts,
		lineItems: lineItems,
		periods:   periods,
		recalc:    recalc,
		idGen:     idGen,
	}
}

// PostingInput describes one transaction to post. Amount is signed.
type PostingInput struct {
	Account     *domain.Account
	Type        domain.TransactionType
	Amount      int64
	PostedAt    time.Time
	Description string
	CategoryID  *string
	// Installments splits the amount across that many periods. Only the
	// split itself links siblings through a parent id.
	Installments int
	ExternalID   *string
	Source       domain.Source
	JobID        *string
	// IDSeed makes line item ids deterministic: the n-th item gets
	// domain.DeterministicID(IDSeed, n).
	IDSeed string
}

// PostingResult counts what a posting wrote.
type PostingResult struct {
	Created   int
	BillItems int
}

func (r *PostingResult) add(o PostingResult) {
	r.Created += o.Created
	r.BillItems += o.BillItems
}

// PostingSession groups postings made inside one transaction so derived
// totals are recomputed once per touched period and account.
type PostingSession struct {
	svc *PostingService
	tx  Transaction

	periodCache map[string]*domain.BillingPeriod

	touchedPeriods  []string
	periodSeen      map[string]struct{}
	touchedAccounts []string
	accountSeen     map[string]struct{}

	staged        []*domain.LineItem
	stagedCredit  int
	balanceDeltas map[string]int64
	deltaOrder    []string
}

// NewSession starts a posting session bound to tx.
func (s *PostingService) NewSession(tx Transaction) *PostingSession {
	return &PostingSession{
		svc:           s,
		tx:            tx,
		periodCache:   make(map[string]*domain.BillingPeriod),
		periodSeen:    make(map[string]struct{}),
		accountSeen:   make(map[string]struct{}),
		balanceDeltas: make(map[string]int64),
	}
}

// Post writes a transaction immediately, one line item per installment.
// Items whose id already exists are skipped, which makes deterministic ids
// safe to replay.
func (ps *PostingSession) Post(ctx context.Context, in PostingInput) (PostingResult, error) {
	items, err := ps.build(ctx, in)
	if err != nil {
		return PostingResult{}, err
	}

	var result PostingResult
	for _, item := range items {
		inserted, err := ps.svc.lineItems.Create(ctx, ps.tx, item)
		if err != nil {
			return PostingResult{}, fmt.Errorf("create line item: %w", err)
		}
		if !inserted {
			continue
		}

		result.Created++
		if item.PeriodID != nil {
			result.BillItems++
			ps.touch(in.Account.ID, *item.PeriodID)
			continue
		}

		if err := ps.svc.accounts.AdjustBalance(ctx, ps.tx, in.Account.ID, item.Amount, time.Now().UTC()); err != nil {
			return PostingResult{}, fmt.Errorf("adjust balance: %w", err)
		}
	}

	return result, nil
}

// Stage buffers a transaction for a single bulk insert on Finish.
func (ps *PostingSession) Stage(ctx context.Context, in PostingInput) error {
	items, err := ps.build(ctx, in)
	if err != nil {
		return err
	}

	for _, item := range items {
		ps.staged = append(ps.staged, item)
		if item.PeriodID != nil {
			ps.stagedCredit++
			ps.touch(in.Account.ID, *item.PeriodID)
			continue
		}

		if _, ok := ps.balanceDeltas[item.AccountID]; !ok {
			ps.deltaOrder = append(ps.deltaOrder, item.AccountID)
		}
		ps.balanceDeltas[item.AccountID] += item.Amount
	}

	return nil
}

// Finish flushes staged items, then recalculates every touched period and
// the balances of every touched credit account.
func (ps *PostingSession) Finish(ctx context.Context) (PostingResult, error) {
	var result PostingResult

	if len(ps.staged) > 0 {
		n, err := ps.svc.lineItems.BulkCreate(ctx, ps.tx, ps.staged)
		if err != nil {
			return PostingResult{}, fmt.Errorf("bulk create line items: %w", err)
		}
		result.add(PostingResult{Created: n, BillItems: ps.stagedCredit})

		now := time.Now().UTC()
		for _, accountID := range ps.deltaOrder {
			if err := ps.svc.accounts.AdjustBalance(ctx, ps.tx, accountID, ps.balanceDeltas[accountID], now); err != nil {
				return PostingResult{}, fmt.Errorf("adjust balance: %w", err)
			}
		}

		ps.staged = nil
		ps.stagedCredit = 0
		ps.balanceDeltas = make(map[string]int64)
		ps.deltaOrder = nil
	}

	for _, periodID := range ps.touchedPeriods {
		if _, err := ps.svc.recalc.RecalculatePeriod(ctx, ps.tx, periodID); err != nil {
			return PostingResult{}, fmt.Errorf("recalculate period %s: %w", periodID, err)
		}
	}

	for _, accountID := range ps.touchedAccounts {
		if _, err := ps.svc.recalc.RecalculateAccountBalance(ctx, ps.tx, accountID); err != nil {
			return PostingResult{}, fmt.Errorf("recalculate account %s: %w", accountID, err)
		}
	}

	return result, nil
}

func (ps *PostingSession) build(ctx context.Context, in PostingInput) ([]*domain.LineItem, error) {
	n := max(in.Installments, 1)

	if !in.Account.IsRevolvingCredit() {
		if n > 1 {
			return nil, domain.NewValidationError("installment_total", "installments require a revolving-credit account")
		}
		item := ps.newItem(in, 0)
		item.Amount = in.Amount
		item.PostedAt = domain.DateOf(in.PostedAt)
		return []*domain.LineItem{item}, nil
	}

	shares, err := domain.SplitInstallments(in.Amount, n, domain.DateOf(in.PostedAt))
	if err != nil {
		return nil, err
	}

	items := make([]*domain.LineItem, 0, n)
	var parentID *string

	for i, share := range shares {
		period, err := ps.period(ctx, in.Account, share.PostedAt)
		if err != nil {
			return nil, err
		}

		item := ps.newItem(in, i)
		item.Amount = share.Amount
		item.PostedAt = share.PostedAt
		item.PeriodID = &period.ID

		if n > 1 {
			number, total := share.Number, share.Total
			item.InstallmentNumber = &number
			item.InstallmentTotal = &total
			item.ParentID = parentID
			if i == 0 {
				first := item.ID
				parentID = &first
			}
		}

		items = append(items, item)
	}

	return items, nil
}

func (ps *PostingSession) newItem(in PostingInput, position int) *domain.LineItem {
	var id string
	if in.IDSeed != "" {
		id = domain.DeterministicID(in.IDSeed, position)
	} else {
		id = ps.svc.idGen.Generate()
	}

	return &domain.LineItem{
		ID:          id,
		AccountID:   in.Account.ID,
		CategoryID:  in.CategoryID,
		Type:        in.Type,
		Description: domain.NormalizeDescription(in.Description),
		ExternalID:  in.ExternalID,
		Source:      in.Source,
		JobID:       in.JobID,
		CreatedAt:   time.Now().UTC(),
	}
}

func (ps *PostingSession) period(ctx context.Context, account *domain.Account, postedAt time.Time) (*domain.BillingPeriod, error) {
	dates := domain.ResolvePeriod(postedAt, account.ClosingDay, account.DueDay)
	key := account.ID + "|" + dates.ReferencePeriod.Format(domain.DateLayout)

	if p, ok := ps.periodCache[key]; ok {
		return p, nil
	}

	p, err := ps.svc.periods.GetOrCreate(ctx, ps.tx, account, postedAt)
	if err != nil {
		return nil, err
	}
	ps.periodCache[key] = p

	return p, nil
}

func (ps *PostingSession) touch(accountID, periodID string) {
	if _, ok := ps.periodSeen[periodID]; !ok {
		ps.periodSeen[periodID] = struct{}{}
		ps.touchedPeriods = append(ps.touchedPeriods, periodID)
	}
	if _, ok := ps.accountSeen[accountID]; !ok {
		ps.accountSeen[accountID] = struct{}{}
		ps.touchedAccounts = append(ps.touchedAccounts, accountID)
	}
}
