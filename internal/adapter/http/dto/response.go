package dto

import (
	"encoding/json"
	"time"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// AccountResponse represents an account in API responses. Amounts are in
// minor units.
type AccountResponse struct {
	ID               string             `json:"id"`
	OwnerID          string             `json:"owner_id"`
	Name             string             `json:"name"`
	Kind             domain.AccountKind `json:"kind"`
	Currency         string             `json:"currency"`
	Balance          int64              `json:"balance"`
	CreditLimit      int64              `json:"credit_limit,omitempty"`
	ClosingDay       int                `json:"closing_day,omitempty"`
	DueDay           int                `json:"due_day,omitempty"`
	UsedBalance      int64              `json:"used_balance,omitempty"`
	AvailableBalance int64              `json:"available_balance,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:               a.ID,
		OwnerID:          a.OwnerID,
		Name:             a.Name,
		Kind:             a.Kind,
		Currency:         a.Currency,
		Balance:          a.Balance,
		CreditLimit:      a.CreditLimit,
		ClosingDay:       a.ClosingDay,
		DueDay:           a.DueDay,
		UsedBalance:      a.UsedBalance,
		AvailableBalance: a.AvailableBalance,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// PeriodResponse represents a billing period in API responses.
type PeriodResponse struct {
	ID              string              `json:"id"`
	AccountID       string              `json:"account_id"`
	ReferencePeriod string              `json:"reference_period"`
	ClosingDate     string              `json:"closing_date"`
	DueDate         string              `json:"due_date"`
	TotalAmount     int64               `json:"total_amount"`
	MinimumDue      int64               `json:"minimum_due"`
	PaidAmount      int64               `json:"paid_amount"`
	Outstanding     int64               `json:"outstanding"`
	Status          domain.PeriodStatus `json:"status"`
	LastPaymentDate *string             `json:"last_payment_date,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// PeriodFromDomain converts domain period to response.
func PeriodFromDomain(p *domain.BillingPeriod) *PeriodResponse {
	resp := &PeriodResponse{
		ID:              p.ID,
		AccountID:       p.AccountID,
		ReferencePeriod: p.ReferencePeriod.Format(domain.DateLayout),
		ClosingDate:     p.ClosingDate.Format(domain.DateLayout),
		DueDate:         p.DueDate.Format(domain.DateLayout),
		TotalAmount:     p.TotalAmount,
		MinimumDue:      p.MinimumDue,
		PaidAmount:      p.PaidAmount,
		Outstanding:     p.Outstanding(),
		Status:          p.Status,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.LastPaymentDate != nil {
		d := p.LastPaymentDate.Format(domain.DateLayout)
		resp.LastPaymentDate = &d
	}
	return resp
}

// PeriodsFromDomain converts domain periods to responses.
func PeriodsFromDomain(periods []*domain.BillingPeriod) []*PeriodResponse {
	result := make([]*PeriodResponse, len(periods))
	for i, p := range periods {
		result[i] = PeriodFromDomain(p)
	}
	return result
}

// LineItemResponse represents a line item in API responses.
type LineItemResponse struct {
	ID                string                 `json:"id"`
	AccountID         string                 `json:"account_id"`
	PeriodID          *string                `json:"period_id,omitempty"`
	CategoryID        *string                `json:"category_id,omitempty"`
	Type              domain.TransactionType `json:"type"`
	Amount            int64                  `json:"amount"`
	PostedAt          string                 `json:"posted_at"`
	Description       string                 `json:"description"`
	InstallmentNumber *int                   `json:"installment_number,omitempty"`
	InstallmentTotal  *int                   `json:"installment_total,omitempty"`
	ParentID          *string                `json:"parent_id,omitempty"`
	ExternalID        *string                `json:"external_id,omitempty"`
	Source            domain.Source          `json:"source"`
	CreatedAt         time.Time              `json:"created_at"`
}

// LineItemFromDomain converts domain line item to response.
func LineItemFromDomain(li *domain.LineItem) *LineItemResponse {
	return &LineItemResponse{
		ID:                li.ID,
		AccountID:         li.AccountID,
		PeriodID:          li.PeriodID,
		CategoryID:        li.CategoryID,
		Type:              li.Type,
		Amount:            li.Amount,
		PostedAt:          li.PostedAt.Format(domain.DateLayout),
		Description:       li.Description,
		InstallmentNumber: li.InstallmentNumber,
		InstallmentTotal:  li.InstallmentTotal,
		ParentID:          li.ParentID,
		ExternalID:        li.ExternalID,
		Source:            li.Source,
		CreatedAt:         li.CreatedAt,
	}
}

// LineItemsFromDomain converts domain line items to responses.
func LineItemsFromDomain(items []*domain.LineItem) []*LineItemResponse {
	result := make([]*LineItemResponse, len(items))
	for i, li := range items {
		result[i] = LineItemFromDomain(li)
	}
	return result
}

// JobResponse represents a job in API responses.
type JobResponse struct {
	ID           string             `json:"id"`
	OwnerID      string             `json:"owner_id"`
	Type         domain.JobType     `json:"type"`
	Status       domain.JobStatus   `json:"status"`
	Progress     domain.JobProgress `json:"progress"`
	ErrorSummary []string           `json:"error_summary,omitempty"`
	Payload      json.RawMessage    `json:"payload,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	FinishedAt   *time.Time         `json:"finished_at,omitempty"`
}

// JobFromDomain converts domain job to response.
func JobFromDomain(j *domain.Job) *JobResponse {
	return &JobResponse{
		ID:           j.ID,
		OwnerID:      j.OwnerID,
		Type:         j.Type,
		Status:       j.Status,
		Progress:     j.Progress,
		ErrorSummary: j.ErrorSummary,
		Payload:      j.Payload,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		StartedAt:    j.StartedAt,
		FinishedAt:   j.FinishedAt,
	}
}

// JobErrorResponse represents one job error log entry.
type JobErrorResponse struct {
	BatchNumber int       `json:"batch_number"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// JobErrorsFromDomain converts a job error log to responses.
func JobErrorsFromDomain(errs []*domain.JobError) []*JobErrorResponse {
	result := make([]*JobErrorResponse, len(errs))
	for i, e := range errs {
		result[i] = &JobErrorResponse{
			BatchNumber: e.BatchNumber,
			Message:     e.Message,
			CreatedAt:   e.CreatedAt,
		}
	}
	return result
}

// FeedLinkResponse represents a feed link in API responses.
type FeedLinkResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	AccountID string    `json:"account_id"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedLinkFromDomain converts domain feed link to response.
func FeedLinkFromDomain(l *domain.FeedLink) *FeedLinkResponse {
	return &FeedLinkResponse{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		AccountID: l.AccountID,
		Provider:  l.Provider,
		CreatedAt: l.CreatedAt,
	}
}

// StageFeedTransactionsResponse reports how many records were new.
type StageFeedTransactionsResponse struct {
	Received int `json:"received"`
	Staged   int `json:"staged"`
}

// DiscrepancyResponse is a period whose stored total disagrees with its items.
type DiscrepancyResponse struct {
	PeriodID        string `json:"period_id"`
	ReferencePeriod string `json:"reference_period"`
	RecordedTotal   int64  `json:"recorded_total"`
	CalculatedTotal int64  `json:"calculated_total"`
}

// ReconciliationResponse represents a reconciliation report.
type ReconciliationResponse struct {
	AccountID      string                 `json:"account_id"`
	Reconciled     bool                   `json:"reconciled"`
	PeriodsChecked int                    `json:"periods_checked"`
	Discrepancies  []*DiscrepancyResponse `json:"discrepancies"`
	RecordedUsed   int64                  `json:"recorded_used"`
	CalculatedUsed int64                  `json:"calculated_used"`
	Repaired       bool                   `json:"repaired"`
	CheckedAt      time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	discrepancies := make([]*DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = &DiscrepancyResponse{
			PeriodID:        d.PeriodID,
			ReferencePeriod: d.ReferencePeriod.Format(domain.DateLayout),
			RecordedTotal:   d.RecordedTotal,
			CalculatedTotal: d.CalculatedTotal,
		}
	}

	return &ReconciliationResponse{
		AccountID:      r.AccountID,
		Reconciled:     r.IsReconciled(),
		PeriodsChecked: r.PeriodsChecked,
		Discrepancies:  discrepancies,
		RecordedUsed:   r.RecordedUsed,
		CalculatedUsed: r.CalculatedUsed,
		Repaired:       r.Repaired,
		CheckedAt:      r.CheckedAt,
	}
}

// ListAccountsResponse represents a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// ListPeriodsResponse represents a list of billing periods.
type ListPeriodsResponse struct {
	Periods []*PeriodResponse `json:"periods"`
	Total   int64             `json:"total"`
}

// ListLineItemsResponse represents a list of line items.
type ListLineItemsResponse struct {
	Items []*LineItemResponse `json:"items"`
	Total int64               `json:"total"`
}

// ListJobErrorsResponse represents a page of a job's error log.
type ListJobErrorsResponse struct {
	Errors []*JobErrorResponse `json:"errors"`
	Total  int64               `json:"total"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
