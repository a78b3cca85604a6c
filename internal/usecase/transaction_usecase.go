package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// ManualTransactionHandler posts a single user-entered transaction. Payments
// on revolving-credit accounts are allocated across open periods.
type ManualTransactionHandler struct {
	txManager  TransactionManager
	accounts   AccountRepository
	categories CategoryRepository
	posting    *PostingService
	payments   *PaymentAllocator
	tracker    *ProgressTracker
	metrics    MetricsRecorder
	logger     zerolog.Logger
}

// NewManualTransactionHandler creates a new ManualTransactionHandler.
func NewManualTransactionHandler(
	txManager TransactionManager,
	accounts AccountRepository,
	categories CategoryRepository,
	posting *PostingService,
	payments *PaymentAllocator,
	tracker *ProgressTracker,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *ManualTransactionHandler {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &ManualTransactionHandler{
		txManager:  txManager,
		accounts:   accounts,
		categories: categories,
		posting:    posting,
		payments:   payments,
		tracker:    tracker,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle implements JobHandler.
func (h *ManualTransactionHandler) Handle(ctx context.Context, job *domain.Job, payload domain.Payload) (*domain.JobResult, error) {
	p, ok := payload.(*domain.ManualTransactionPayload)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected payload %T", domain.ErrUnknownJobType, payload)
	}
	return h.create(ctx, job, p.OwnerID, p.Fields, domain.SourceManual)
}

func (h *ManualTransactionHandler) create(ctx context.Context, job *domain.Job, ownerID string, f domain.TransactionFields, source domain.Source) (*domain.JobResult, error) {
	postedAt, err := domain.ParseDate(f.PostedAt)
	if err != nil {
		return nil, domain.NewValidationError("posted_at", err.Error())
	}

	account, err := loadOwnedAccount(ctx, h.accounts, ownerID, f.AccountID)
	if err != nil {
		return nil, err
	}

	if f.Type == domain.TransactionPayment && account.IsRevolvingCredit() {
		return h.pay(ctx, job, account, f.Amount, postedAt, f.Description, source)
	}

	if f.CategoryID != nil {
		if _, err := loadOwnedCategory(ctx, h.categories, ownerID, *f.CategoryID); err != nil {
			return nil, err
		}
	}

	input := PostingInput{
		Account:      account,
		Type:         f.Type,
		Amount:       f.Type.SignedAmount(f.Amount),
		PostedAt:     postedAt,
		Description:  f.Description,
		CategoryID:   f.CategoryID,
		Installments: f.Installments(),
		Source:       source,
		JobID:        &job.ID,
		IDSeed:       job.ID,
	}

	var result PostingResult
	err = h.txManager.RunInTx(ctx, func(tx Transaction) error {
		session := h.posting.NewSession(tx)

		posted, err := session.Post(ctx, input)
		if err != nil {
			return err
		}

		finished, err := session.Finish(ctx)
		if err != nil {
			return err
		}

		result = posted
		result.add(finished)
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := f.Installments()
	progress := domain.JobProgress{
		Processed:        total,
		Total:            total,
		Imported:         result.Created,
		Skipped:          total - result.Created,
		BillItemsCreated: result.BillItems,
	}

	if err := h.tracker.Update(ctx, job, progress); err != nil {
		return nil, fmt.Errorf("store progress: %w", err)
	}
	h.metrics.LineItemsImported(source, result.Created)

	return &domain.JobResult{Progress: progress}, nil
}

// pay allocates a bill payment. The audit line item id is derived from the
// job id so a redelivered job applies nothing twice.
func (h *ManualTransactionHandler) pay(
	ctx context.Context,
	job *domain.Job,
	account *domain.Account,
	amount int64,
	paidOn time.Time,
	description string,
	source domain.Source,
) (*domain.JobResult, error) {
	input := PaymentInput{
		Account:     account,
		Amount:      amount,
		PaidOn:      paidOn,
		Description: description,
		Source:      source,
		JobID:       &job.ID,
		AuditID:     domain.DeterministicID(job.ID, 0),
	}

	var result *PaymentResult
	err := h.txManager.RunInTx(ctx, func(tx Transaction) error {
		var err error
		result, err = h.payments.Allocate(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	progress := domain.JobProgress{Processed: 1, Total: 1}
	if result.Replayed {
		progress.Skipped = 1
	} else {
		progress.Imported = 1
	}

	if err := h.tracker.Update(ctx, job, progress); err != nil {
		return nil, fmt.Errorf("store progress: %w", err)
	}
	h.metrics.LineItemsImported(source, progress.Imported)

	h.logger.Info().
		Str("job_id", job.ID).
		Str("account_id", account.ID).
		Int64("applied", result.Applied).
		Int64("unapplied", result.Unapplied).
		Int("periods", len(result.Allocations)).
		Msg("payment allocated")

	return &domain.JobResult{Progress: progress}, nil
}

// CategoryReassignHandler moves every line item of one category to another.
type CategoryReassignHandler struct {
	txManager  TransactionManager
	categories CategoryRepository
	lineItems  LineItemRepository
	tracker    *ProgressTracker
}

// NewCategoryReassignHandler creates a new CategoryReassignHandler.
func NewCategoryReassignHandler(
	txManager TransactionManager,
	categories CategoryRepository,
	lineItems LineItemRepository,
	tracker *ProgressTracker,
) *CategoryReassignHandler {
	return &CategoryReassignHandler{
		txManager:  txManager,
		categories: categories,
		lineItems:  lineItems,
		tracker:    tracker,
	}
}

// Handle implements JobHandler.
func (h *CategoryReassignHandler) Handle(ctx context.Context, job *domain.Job, payload domain.Payload) (*domain.JobResult, error) {
	p, ok := payload.(*domain.CategoryReassignPayload)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected payload %T", domain.ErrUnknownJobType, payload)
	}
	return h.reassign(ctx, job, job.OwnerID, p)
}

func (h *CategoryReassignHandler) reassign(ctx context.Context, job *domain.Job, ownerID string, p *domain.CategoryReassignPayload) (*domain.JobResult, error) {
	if _, err := loadOwnedCategory(ctx, h.categories, ownerID, p.SourceCategoryID); err != nil {
		return nil, err
	}
	if _, err := loadOwnedCategory(ctx, h.categories, ownerID, p.TargetCategoryID); err != nil {
		return nil, err
	}

	var moved int64
	err := h.txManager.RunInTx(ctx, func(tx Transaction) error {
		var err error
		moved, err = h.lineItems.ReassignCategory(ctx, tx, p.SourceCategoryID, p.TargetCategoryID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reassign category: %w", err)
	}

	progress := domain.JobProgress{
		Processed: int(moved),
		Total:     int(moved),
		Imported:  int(moved),
	}
	if err := h.tracker.Update(ctx, job, progress); err != nil {
		return nil, fmt.Errorf("store progress: %w", err)
	}

	return &domain.JobResult{Progress: progress}, nil
}

// BotOperationHandler executes a structured chat intent by delegating to the
// handler owning that operation.
type BotOperationHandler struct {
	transactions *ManualTransactionHandler
	categories   *CategoryReassignHandler
}

// NewBotOperationHandler creates a new BotOperationHandler.
func NewBotOperationHandler(transactions *ManualTransactionHandler, categories *CategoryReassignHandler) *BotOperationHandler {
	return &BotOperationHandler{transactions: transactions, categories: categories}
}

// Handle implements JobHandler.
func (h *BotOperationHandler) Handle(ctx context.Context, job *domain.Job, payload domain.Payload) (*domain.JobResult, error) {
	p, ok := payload.(*domain.BotOperationPayload)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected payload %T", domain.ErrUnknownJobType, payload)
	}

	switch p.Intent {
	case domain.BotIntentCreateTransaction:
		var f domain.TransactionFields
		if err := p.DecodeFields(&f); err != nil {
			return nil, err
		}
		return h.transactions.create(ctx, job, p.OwnerID, f, domain.SourceBot)

	case domain.BotIntentPayBill:
		var f domain.PayBillFields
		if err := p.DecodeFields(&f); err != nil {
			return nil, err
		}
		paidOn, err := domain.ParseDate(f.PaidOn)
		if err != nil {
			return nil, domain.NewValidationError("paid_on", err.Error())
		}
		account, err := loadOwnedAccount(ctx, h.transactions.accounts, p.OwnerID, f.AccountID)
		if err != nil {
			return nil, err
		}
		return h.transactions.pay(ctx, job, account, f.Amount, paidOn, "", domain.SourceBot)

	case domain.BotIntentReassignCategory:
		var f domain.CategoryReassignPayload
		if err := p.DecodeFields(&f); err != nil {
			return nil, err
		}
		return h.categories.reassign(ctx, job, p.OwnerID, &f)
	}

	return nil, domain.NewValidationError("intent", fmt.Sprintf("unsupported intent %q", p.Intent))
}
