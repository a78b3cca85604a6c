package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodStatus is the lifecycle state of a billing period.
type PeriodStatus string

const (
	PeriodStatusOpen    PeriodStatus = "open"
	PeriodStatusClosed  PeriodStatus = "closed"
	PeriodStatusPartial PeriodStatus = "partial"
	PeriodStatusPaid    PeriodStatus = "paid"
	PeriodStatusOverdue PeriodStatus = "overdue"
)

// BillingPeriod is one monthly statement of a revolving-credit account.
// There is exactly one period per (AccountID, ReferencePeriod).
type BillingPeriod struct {
	ID              string
	AccountID       string
	ReferencePeriod time.Time
	ClosingDate     time.Time
	DueDate         time.Time
	TotalAmount     int64
	MinimumDue      int64
	PaidAmount      int64
	Status          PeriodStatus
	LastPaymentDate *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewBillingPeriod creates an open, empty period for the resolved dates.
func NewBillingPeriod(id, accountID string, dates PeriodDates, now time.Time) *BillingPeriod {
	return &BillingPeriod{
		ID:              id,
		AccountID:       accountID,
		ReferencePeriod: dates.ReferencePeriod,
		ClosingDate:     dates.ClosingDate,
		DueDate:         dates.DueDate,
		Status:          PeriodStatusOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Outstanding returns the unpaid part of the period.
func (p *BillingPeriod) Outstanding() int64 {
	return p.TotalAmount - p.PaidAmount
}

// ApplyPayment applies up to remaining to the period and returns the applied
// delta. The paid amount never exceeds the total.
func (p *BillingPeriod) ApplyPayment(remaining int64, paidOn time.Time) int64 {
	outstanding := p.Outstanding()
	if remaining <= 0 || outstanding <= 0 {
		return 0
	}

	delta := min(remaining, outstanding)
	p.PaidAmount += delta

	if p.PaidAmount >= p.TotalAmount {
		p.Status = PeriodStatusPaid
	} else {
		p.Status = PeriodStatusPartial
	}

	paid := DateOf(paidOn)
	p.LastPaymentDate = &paid

	return delta
}

// SetTotals stores a freshly derived total and minimum due. A paid period
// whose total grew past the paid amount is reopened as partial, and a partly
// paid period whose total shrank to the paid amount becomes paid.
func (p *BillingPeriod) SetTotals(total, minimumDue int64) {
	p.TotalAmount = total
	p.MinimumDue = minimumDue

	switch {
	case p.Status == PeriodStatusPaid && p.PaidAmount < p.TotalAmount:
		if p.PaidAmount > 0 {
			p.Status = PeriodStatusPartial
		} else {
			p.Status = PeriodStatusOpen
		}
	case p.Status == PeriodStatusPartial && p.PaidAmount >= p.TotalAmount:
		p.Status = PeriodStatusPaid
	}
}

// MinimumDuePolicy computes the minimum payment of a period.
type MinimumDuePolicy struct {
	Rate  decimal.Decimal
	Floor int64
}

// DefaultMinimumDuePolicy is 15% of the total with a floor of 50.00.
func DefaultMinimumDuePolicy() MinimumDuePolicy {
	return MinimumDuePolicy{
		Rate:  decimal.NewFromFloat(0.15),
		Floor: 5000,
	}
}

// MinimumDue returns max(total*rate, floor). Totals that are zero or
// negative owe nothing.
func (mp MinimumDuePolicy) MinimumDue(total int64) int64 {
	if total <= 0 {
		return 0
	}

	share := decimal.NewFromInt(total).Mul(mp.Rate).Round(0).IntPart()
	return max(share, mp.Floor)
}
