package domain

import "time"

// FeedLink connects an open-banking connection to the account its
// transactions are booked on.
type FeedLink struct {
	ID        string
	OwnerID   string
	AccountID string
	Provider  string
	CreatedAt time.Time
}

// FeedTransaction is a provider record staged for import.
type FeedTransaction struct {
	LinkID      string
	ProviderID  string
	PostedAt    time.Time
	Description string
	Amount      int64
	Type        TransactionType
	CategoryID  *string
	CreatedAt   time.Time
}

// ToImportRecord converts the staged record into the shared import shape.
func (t *FeedTransaction) ToImportRecord(accountID string) ImportRecord {
	return ImportRecord{
		ExternalID:  t.ProviderID,
		PostedAt:    t.PostedAt,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		CategoryID:  t.CategoryID,
		AccountID:   accountID,
	}
}
