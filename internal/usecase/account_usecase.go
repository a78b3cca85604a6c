package usecase

import (
	"context"
	"time"

	"github.com/iho/cardledger/internal/domain"
)

// AccountUseCase handles account, period and category reads and account
// creation.
type AccountUseCase struct {
	accountRepo  AccountRepository
	periodRepo   BillingPeriodRepository
	lineItemRepo LineItemRepository
	categoryRepo CategoryRepository
	idGen        IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	accountRepo AccountRepository,
	periodRepo BillingPeriodRepository,
	lineItemRepo LineItemRepository,
	categoryRepo CategoryRepository,
	idGen IDGenerator,
) *AccountUseCase {
	return &AccountUseCase{
		accountRepo:  accountRepo,
		periodRepo:   periodRepo,
		lineItemRepo: lineItemRepo,
		categoryRepo: categoryRepo,
		idGen:        idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerID     string
	Name        string
	Kind        domain.AccountKind
	Currency    string
	CreditLimit int64
	ClosingDay  int
	DueDay      int
}

// CreateAccount creates a new account. Revolving-credit accounts start with
// their whole limit available.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.OwnerID == "" {
		return nil, domain.NewValidationError("owner_id", "is required")
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		OwnerID:   input.OwnerID,
		Name:      input.Name,
		Kind:      input.Kind,
		Currency:  input.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if account.IsRevolvingCredit() {
		account.CreditLimit = input.CreditLimit
		account.ClosingDay = input.ClosingDay
		account.DueDay = input.DueDay
		account.AvailableBalance = input.CreditLimit
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	OwnerID string
	Limit   int
	Offset  int
}

// ListAccounts lists the accounts of one owner with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}
	return uc.accountRepo.ListByOwner(ctx, input.OwnerID, limit, offset)
}

// ListPeriods lists the billing periods of an account, newest first.
func (uc *AccountUseCase) ListPeriods(ctx context.Context, accountID string, limit, offset int) ([]*domain.BillingPeriod, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	return uc.periodRepo.ListByAccount(ctx, accountID, limit, offset)
}

// GetPeriod retrieves a billing period by ID.
func (uc *AccountUseCase) GetPeriod(ctx context.Context, id string) (*domain.BillingPeriod, error) {
	return uc.periodRepo.GetByID(ctx, id)
}

// ListPeriodItems lists the line items of a billing period.
func (uc *AccountUseCase) ListPeriodItems(ctx context.Context, periodID string, limit, offset int) ([]*domain.LineItem, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	if _, err := uc.periodRepo.GetByID(ctx, periodID); err != nil {
		return nil, err
	}

	return uc.lineItemRepo.ListByPeriod(ctx, periodID, limit, offset)
}

// ListCategories lists the categories of an owner.
func (uc *AccountUseCase) ListCategories(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	return uc.categoryRepo.ListByOwner(ctx, ownerID)
}
