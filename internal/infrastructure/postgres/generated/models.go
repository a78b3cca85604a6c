
package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID               string             `json:"id"`
	OwnerID          string             `json:"owner_id"`
	Name             string             `json:"name"`
	Kind             string             `json:"kind"`
	Currency         string             `json:"currency"`
	Balance          int64              `json:"balance"`
	CreditLimit      int64              `json:"credit_limit"`
	ClosingDay       int32              `json:"closing_day"`
	DueDay           int32              `json:"due_day"`
	UsedBalance      int64              `json:"used_balance"`
	AvailableBalance int64              `json:"available_balance"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

type BillingPeriod struct {
	ID              string             `json:"id"`
	AccountID       string             `json:"account_id"`
	ReferencePeriod pgtype.Date        `json:"reference_period"`
	ClosingDate     pgtype.Date        `json:"closing_date"`
	DueDate         pgtype.Date        `json:"due_date"`
	TotalAmount     int64              `json:"total_amount"`
	MinimumDue      int64              `json:"minimum_due"`
	PaidAmount      int64              `json:"paid_amount"`
	Status          string             `json:"status"`
	LastPaymentDate pgtype.Date        `json:"last_payment_date"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

type Category struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	Name      string             `json:"name"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type FeedLink struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	AccountID string             `json:"account_id"`
	Provider  string             `json:"provider"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type FeedTransaction struct {
	LinkID      string             `json:"link_id"`
	ProviderID  string             `json:"provider_id"`
	PostedAt    pgtype.Date        `json:"posted_at"`
	Description string             `json:"description"`
	Amount      int64              `json:"amount"`
	Type        string             `json:"type"`
	CategoryID  pgtype.Text        `json:"category_id"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Job struct {
	ID               string             `json:"id"`
	OwnerID          string             `json:"owner_id"`
	Type             string             `json:"type"`
	Payload          []byte             `json:"payload"`
	Status           string             `json:"status"`
	Processed        int32              `json:"processed"`
	Total            int32              `json:"total"`
	Imported         int32              `json:"imported"`
	Skipped          int32              `json:"skipped"`
	BillItemsCreated int32              `json:"bill_items_created"`
	ErrorSummary     []string           `json:"error_summary"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
	StartedAt        pgtype.Timestamptz `json:"started_at"`
	FinishedAt       pgtype.Timestamptz `json:"finished_at"`
}

type JobError struct {
	ID          int64              `json:"id"`
	JobID       string             `json:"job_id"`
	BatchNumber int32              `json:"batch_number"`
	Message     string             `json:"message"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type LineItem struct {
	ID                string             `json:"id"`
	AccountID         string             `json:"account_id"`
	PeriodID          pgtype.Text        `json:"period_id"`
	CategoryID        pgtype.Text        `json:"category_id"`
	Type              string             `json:"type"`
	Amount            int64              `json:"amount"`
	PostedAt          pgtype.Date        `json:"posted_at"`
	Description       string             `json:"description"`
	InstallmentNumber pgtype.Int4        `json:"installment_number"`
	InstallmentTotal  pgtype.Int4        `json:"installment_total"`
	ParentID          pgtype.Text        `json:"parent_id"`
	ExternalID        pgtype.Text        `json:"external_id"`
	Source            string             `json:"source"`
	JobID             pgtype.Text        `json:"job_id"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
}
