package dto

import (
	"time"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name        string             `json:"name"`
	Kind        domain.AccountKind `json:"kind"`
	Currency    string             `json:"currency"`
	CreditLimit int64              `json:"credit_limit,omitempty"`
	ClosingDay  int                `json:"closing_day,omitempty"`
	DueDay      int                `json:"due_day,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(ownerID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerID:     ownerID,
		Name:        r.Name,
		Kind:        r.Kind,
		Currency:    r.Currency,
		CreditLimit: r.CreditLimit,
		ClosingDay:  r.ClosingDay,
		DueDay:      r.DueDay,
	}
}

// ReconcileRequest represents a request to reconcile an account.
type ReconcileRequest struct {
	Repair bool `json:"repair"`
}

// CreateFeedLinkRequest represents a request to link a provider connection.
type CreateFeedLinkRequest struct {
	AccountID string `json:"account_id"`
	Provider  string `json:"provider"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateFeedLinkRequest) ToUseCaseInput(ownerID string) usecase.CreateLinkInput {
	return usecase.CreateLinkInput{
		OwnerID:   ownerID,
		AccountID: r.AccountID,
		Provider:  r.Provider,
	}
}

// FeedTransactionItem is one provider record in a staging request.
type FeedTransactionItem struct {
	ProviderID  string                 `json:"provider_id"`
	PostedAt    time.Time              `json:"posted_at"`
	Description string                 `json:"description"`
	Amount      int64                  `json:"amount"`
	Type        domain.TransactionType `json:"type,omitempty"`
	CategoryID  *string                `json:"category_id,omitempty"`
}

// StageFeedTransactionsRequest represents a request to stage provider records.
type StageFeedTransactionsRequest struct {
	Transactions []FeedTransactionItem `json:"transactions"`
}

// ToDomain converts the staged records.
func (r *StageFeedTransactionsRequest) ToDomain() []*domain.FeedTransaction {
	txs := make([]*domain.FeedTransaction, len(r.Transactions))
	for i, t := range r.Transactions {
		txs[i] = &domain.FeedTransaction{
			ProviderID:  t.ProviderID,
			PostedAt:    t.PostedAt,
			Description: t.Description,
			Amount:      t.Amount,
			Type:        t.Type,
			CategoryID:  t.CategoryID,
		}
	}
	return txs
}
