package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JobType identifies the handler a job is routed to.
type JobType string

const (
	JobTypeFileImport        JobType = "file_import"
	JobTypeManualTransaction JobType = "manual_transaction"
	JobTypeFeedImport        JobType = "feed_import"
	JobTypeCategoryReassign  JobType = "category_reassign"
	JobTypeBotOperation      JobType = "bot_operation"
)

// JobTypes lists every job type the dispatcher knows about.
var JobTypes = []JobType{
	JobTypeFileImport,
	JobTypeManualTransaction,
	JobTypeFeedImport,
	JobTypeCategoryReassign,
	JobTypeBotOperation,
}

// JobStatus is the state of a job in its lifecycle.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobProgress holds the counters an observer polls while a job runs.
type JobProgress struct {
	Processed        int `json:"processed"`
	Total            int `json:"total"`
	Imported         int `json:"imported"`
	Skipped          int `json:"skipped"`
	BillItemsCreated int `json:"bill_items_created"`
}

// Job is a unit of asynchronous work submitted by a user.
type Job struct {
	ID           string
	OwnerID      string
	Type         JobType
	Payload      json.RawMessage
	Status       JobStatus
	Progress     JobProgress
	ErrorSummary []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// JobError is one entry of a job's append-only error log.
type JobError struct {
	JobID       string
	BatchNumber int
	Message     string
	CreatedAt   time.Time
}

// JobResult is what a handler reports back to the dispatcher. Per-batch
// errors are already in the job error log; ErrorSummary holds the first few.
type JobResult struct {
	Progress     JobProgress
	ErrorSummary []string
	Failed       bool
}

// Payload is implemented by every job payload variant.
type Payload interface {
	Validate() error
}

// DecodePayload decodes raw into the payload variant for jobType and
// validates it.
func DecodePayload(jobType JobType, raw json.RawMessage) (Payload, error) {
	var p Payload

	switch jobType {
	case JobTypeFileImport:
		p = &FileImportPayload{}
	case JobTypeManualTransaction:
		p = &ManualTransactionPayload{}
	case JobTypeFeedImport:
		p = &FeedImportPayload{}
	case JobTypeCategoryReassign:
		p = &CategoryReassignPayload{}
	case JobTypeBotOperation:
		p = &BotOperationPayload{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}

	if len(raw) == 0 {
		return nil, NewValidationError("payload", "is required")
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, NewValidationError("payload", err.Error())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// ImportOptions tune a bulk file import.
type ImportOptions struct {
	AccountID          *string           `json:"account_id,omitempty"`
	CategoryMappings   map[string]string `json:"category_mappings,omitempty"`
	CategoriesToCreate []string          `json:"categories_to_create,omitempty"`
	SelectedIDs        []string          `json:"selected_ids,omitempty"`
	DeleteAfterImport  *bool             `json:"delete_after_import,omitempty"`
}

// FileImportPayload imports a CSV or OFX file from storage.
type FileImportPayload struct {
	StorageLocation string        `json:"storage_location"`
	Format          string        `json:"format,omitempty"`
	Options         ImportOptions `json:"options"`
}

func (p *FileImportPayload) Validate() error {
	if strings.TrimSpace(p.StorageLocation) == "" {
		return NewValidationError("storage_location", "is required")
	}
	if p.Format != "" && p.Format != "csv" && p.Format != "ofx" {
		return NewValidationError("format", "must be csv or ofx")
	}
	for _, name := range p.Options.CategoriesToCreate {
		if err := ValidateCategoryName(name); err != nil {
			return NewValidationError("categories_to_create", err.Error())
		}
	}
	return nil
}

// FeedSelection picks one staged feed transaction for import.
type FeedSelection struct {
	ID         string  `json:"id"`
	CategoryID *string `json:"category_id,omitempty"`
}

// FeedImportPayload imports staged open-banking feed transactions.
type FeedImportPayload struct {
	LinkID       string          `json:"link_id"`
	Transactions []FeedSelection `json:"transactions"`
}

func (p *FeedImportPayload) Validate() error {
	if strings.TrimSpace(p.LinkID) == "" {
		return NewValidationError("link_id", "is required")
	}
	if len(p.Transactions) == 0 {
		return NewValidationError("transactions", "at least one transaction is required")
	}
	for i, tx := range p.Transactions {
		if strings.TrimSpace(tx.ID) == "" {
			return NewValidationError(fmt.Sprintf("transactions[%d].id", i), "is required")
		}
	}
	return nil
}

// TransactionFields describe a single manually entered transaction. Amount is
// a positive magnitude; Type decides its sign.
type TransactionFields struct {
	AccountID        string          `json:"account_id"`
	CategoryID       *string         `json:"category_id,omitempty"`
	PostedAt         string          `json:"posted_at"`
	Description      string          `json:"description"`
	Amount           int64           `json:"amount"`
	Type             TransactionType `json:"type"`
	InstallmentTotal *int            `json:"installment_total,omitempty"`
}

func (f *TransactionFields) Validate() error {
	if strings.TrimSpace(f.AccountID) == "" {
		return NewValidationError("account_id", "is required")
	}
	if _, err := ParseDate(f.PostedAt); err != nil {
		return NewValidationError("posted_at", err.Error())
	}
	if err := ValidateDescription(f.Description); err != nil {
		return err
	}
	if err := ValidateAmount("amount", f.Amount); err != nil {
		return err
	}
	if !f.Type.IsValid() {
		return NewValidationError("type", "must be expense, income or payment")
	}
	if err := ValidateInstallmentTotal(f.InstallmentTotal); err != nil {
		return err
	}
	if f.Type == TransactionPayment && f.InstallmentTotal != nil && *f.InstallmentTotal > 1 {
		return NewValidationError("installment_total", "payments cannot be split")
	}
	return nil
}

// Installments returns the installment count, defaulting to one.
func (f *TransactionFields) Installments() int {
	if f.InstallmentTotal == nil {
		return 1
	}
	return *f.InstallmentTotal
}

// ManualTransactionPayload creates one transaction entered by a user.
type ManualTransactionPayload struct {
	OwnerID string            `json:"owner_id"`
	Fields  TransactionFields `json:"fields"`
}

func (p *ManualTransactionPayload) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return NewValidationError("owner_id", "is required")
	}
	return p.Fields.Validate()
}

// CategoryReassignPayload moves every line item from one category to another.
type CategoryReassignPayload struct {
	SourceCategoryID string `json:"source_category_id"`
	TargetCategoryID string `json:"target_category_id"`
}

func (p *CategoryReassignPayload) Validate() error {
	if strings.TrimSpace(p.SourceCategoryID) == "" {
		return NewValidationError("source_category_id", "is required")
	}
	if strings.TrimSpace(p.TargetCategoryID) == "" {
		return NewValidationError("target_category_id", "is required")
	}
	if p.SourceCategoryID == p.TargetCategoryID {
		return NewValidationError("target_category_id", "must differ from source_category_id")
	}
	return nil
}

// BotIntent is a structured intent extracted from a chat message upstream.
type BotIntent string

const (
	BotIntentCreateTransaction BotIntent = "create_transaction"
	BotIntentPayBill           BotIntent = "pay_bill"
	BotIntentReassignCategory  BotIntent = "reassign_category"
)

// PayBillFields pay a credit card bill.
type PayBillFields struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	PaidOn    string `json:"paid_on"`
}

func (f *PayBillFields) Validate() error {
	if strings.TrimSpace(f.AccountID) == "" {
		return NewValidationError("account_id", "is required")
	}
	if err := ValidateAmount("amount", f.Amount); err != nil {
		return err
	}
	if _, err := ParseDate(f.PaidOn); err != nil {
		return NewValidationError("paid_on", err.Error())
	}
	return nil
}

// BotOperationPayload carries an intent and its intent-specific fields.
type BotOperationPayload struct {
	OwnerID string          `json:"owner_id"`
	Intent  BotIntent       `json:"intent"`
	Fields  json.RawMessage `json:"fields"`
}

func (p *BotOperationPayload) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return NewValidationError("owner_id", "is required")
	}
	if len(p.Fields) == 0 {
		return NewValidationError("fields", "is required")
	}

	switch p.Intent {
	case BotIntentCreateTransaction, BotIntentPayBill, BotIntentReassignCategory:
		return nil
	}
	return NewValidationError("intent", fmt.Sprintf("unsupported intent %q", p.Intent))
}

// DecodeFields unmarshals and validates the intent fields into dst.
func (p *BotOperationPayload) DecodeFields(dst Payload) error {
	if err := json.Unmarshal(p.Fields, dst); err != nil {
		return NewValidationError("fields", err.Error())
	}
	return dst.Validate()
}
