package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iho/cardledger/internal/domain"
)

// FeedUseCase links open-banking connections to accounts and stages the
// provider transactions that feed import jobs later pick from.
type FeedUseCase struct {
	feeds    FeedRepository
	accounts AccountRepository
	idGen    IDGenerator
}

// NewFeedUseCase creates a new FeedUseCase.
func NewFeedUseCase(feeds FeedRepository, accounts AccountRepository, idGen IDGenerator) *FeedUseCase {
	return &FeedUseCase{
		feeds:    feeds,
		accounts: accounts,
		idGen:    idGen,
	}
}

// CreateLinkInput is the input for linking a provider connection.
type CreateLinkInput struct {
	OwnerID   string
	AccountID string
	Provider  string
}

// CreateLink links a provider connection to one of the owner's accounts.
func (uc *FeedUseCase) CreateLink(ctx context.Context, input CreateLinkInput) (*domain.FeedLink, error) {
	if strings.TrimSpace(input.Provider) == "" {
		return nil, domain.NewValidationError("provider", "is required")
	}

	account, err := uc.accounts.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	if input.OwnerID != "" && account.OwnerID != input.OwnerID {
		return nil, domain.NewNotFoundError("account", input.AccountID, domain.ErrAccountNotFound)
	}

	link := &domain.FeedLink{
		ID:        uc.idGen.Generate(),
		OwnerID:   account.OwnerID,
		AccountID: account.ID,
		Provider:  input.Provider,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.feeds.CreateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("create feed link: %w", err)
	}

	return link, nil
}

// StageTransactions stores provider records for a link and returns how many
// were new. Records already staged under the same provider id are kept as
// they are.
func (uc *FeedUseCase) StageTransactions(ctx context.Context, linkID string, txs []*domain.FeedTransaction) (int, error) {
	if _, err := uc.feeds.GetLink(ctx, linkID); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for i, tx := range txs {
		if tx.ProviderID == "" {
			return 0, domain.NewValidationError(fmt.Sprintf("transactions[%d].provider_id", i), "is required")
		}
		if tx.PostedAt.IsZero() {
			return 0, domain.NewValidationError(fmt.Sprintf("transactions[%d].posted_at", i), "is required")
		}
		if tx.Type != "" && !tx.Type.IsValid() {
			return 0, domain.NewValidationError(fmt.Sprintf("transactions[%d].type", i), "is not a known transaction type")
		}
		tx.LinkID = linkID
		tx.PostedAt = domain.DateOf(tx.PostedAt)
		tx.CreatedAt = now
	}

	return uc.feeds.Stage(ctx, txs)
}
