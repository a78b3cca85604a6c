package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType is the business meaning of a line item.
type TransactionType string

const (
	TransactionExpense TransactionType = "expense"
	TransactionIncome  TransactionType = "income"
	TransactionPayment TransactionType = "payment"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionExpense, TransactionIncome, TransactionPayment:
		return true
	}
	return false
}

// SignedAmount applies the type's direction to a positive magnitude.
// Expenses are outflows and therefore negative.
func (t TransactionType) SignedAmount(magnitude int64) int64 {
	if t == TransactionExpense {
		return -magnitude
	}
	return magnitude
}

// Source tags where a line item came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
	SourceFeed   Source = "feed"
	SourceBot    Source = "bot"
)

// LineItem is a single ledger entry on an account.
type LineItem struct {
	ID                string
	AccountID         string
	PeriodID          *string
	CategoryID        *string
	Type              TransactionType
	Amount            int64
	PostedAt          time.Time
	Description       string
	InstallmentNumber *int
	InstallmentTotal  *int
	ParentID          *string
	ExternalID        *string
	Source            Source
	JobID             *string
	CreatedAt         time.Time
}

// Fingerprint returns the content fingerprint of the line item.
func (li *LineItem) Fingerprint() Fingerprint {
	return NewFingerprint(li.PostedAt, li.Description, li.Amount)
}

// Fingerprint is the (date, description, signed amount) content key used to
// detect duplicates that carry no reliable provider id.
type Fingerprint struct {
	Date        time.Time
	Description string
	Amount      int64
}

// NewFingerprint builds a fingerprint with a normalised date and description.
func NewFingerprint(postedAt time.Time, description string, amount int64) Fingerprint {
	return Fingerprint{
		Date:        DateOf(postedAt),
		Description: NormalizeDescription(description),
		Amount:      amount,
	}
}

// Key returns a stable hash of the fingerprint suitable for map keys and
// cache entries.
func (f Fingerprint) Key() string {
	h := sha256.New()
	h.Write([]byte(f.Date.Format(DateLayout)))
	h.Write([]byte{0})
	h.Write([]byte(f.Description))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(f.Amount, 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeDescription trims and collapses whitespace.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var lineItemNamespace = uuid.MustParse("6f1d8a8e-3c59-4c6b-9b0e-5d0f5f1a7c21")

// DeterministicID derives a stable line item id from a job id and a position
// inside that job, so a redelivered job writes the same ids again.
func DeterministicID(jobID string, position int) string {
	return uuid.NewSHA1(lineItemNamespace, []byte(jobID+"/"+strconv.Itoa(position))).String()
}
