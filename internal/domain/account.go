package domain

import (
	"time"
)

// AccountKind distinguishes revolving-credit accounts from plain balance accounts.
type AccountKind string

const (
	AccountKindCreditCard AccountKind = "credit_card"
	AccountKindChecking   AccountKind = "checking"
	AccountKindSavings    AccountKind = "savings"
	AccountKindCash       AccountKind = "cash"
	AccountKindInvestment AccountKind = "investment"
)

var validAccountKinds = map[AccountKind]bool{
	AccountKindCreditCard: true,
	AccountKindChecking:   true,
	AccountKindSavings:    true,
	AccountKindCash:       true,
	AccountKindInvestment: true,
}

// IsValid reports whether k is a known account kind.
func (k AccountKind) IsValid() bool {
	return validAccountKinds[k]
}

// Account represents a ledger account owned by a user.
//
// For revolving-credit accounts UsedBalance and AvailableBalance are derived
// from billing periods and written only by the recalculator. For every other
// kind Balance is a running total adjusted by signed deltas.
type Account struct {
	ID               string
	OwnerID          string
	Name             string
	Kind             AccountKind
	Currency         string
	Balance          int64
	CreditLimit      int64
	ClosingDay       int
	DueDay           int
	UsedBalance      int64
	AvailableBalance int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsRevolvingCredit reports whether line items on this account are grouped
// into billing periods.
func (a *Account) IsRevolvingCredit() bool {
	return a.Kind == AccountKindCreditCard
}

// AvailableFor returns the available credit for a given used balance.
// Available credit never goes below zero.
func (a *Account) AvailableFor(used int64) int64 {
	available := a.CreditLimit - used
	if available < 0 {
		return 0
	}
	return available
}

// Validate checks the account's static configuration.
func (a *Account) Validate() error {
	if err := ValidateAccountName(a.Name); err != nil {
		return err
	}

	if !a.Kind.IsValid() {
		return NewValidationError("kind", "unknown account kind "+string(a.Kind))
	}

	if !a.IsRevolvingCredit() {
		return nil
	}

	if a.CreditLimit < 0 {
		return NewValidationError("credit_limit", "must not be negative")
	}
	if err := ValidateDayOfMonth("closing_day", a.ClosingDay); err != nil {
		return err
	}
	if err := ValidateDayOfMonth("due_day", a.DueDay); err != nil {
		return err
	}

	return nil
}
