package domain

import "time"

// ImportRecord is a normalised transaction coming from a file or a feed,
// before deduplication and insertion.
type ImportRecord struct {
	ExternalID  string
	PostedAt    time.Time
	Description string
	Amount      int64
	Type        TransactionType
	Category    string
	CategoryID  *string
	AccountID   string
}

// Fingerprint returns the content fingerprint of the record.
func (r *ImportRecord) Fingerprint() Fingerprint {
	return NewFingerprint(r.PostedAt, r.Description, r.Amount)
}

// InferType derives a transaction type from the amount sign when the source
// did not carry one.
func (r *ImportRecord) InferType() TransactionType {
	if r.Type.IsValid() {
		return r.Type
	}
	if r.Amount < 0 {
		return TransactionExpense
	}
	return TransactionIncome
}
