package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrNotRevolvingCredit = errors.New("account is not a revolving-credit account")

	// Billing period errors
	ErrPeriodNotFound  = errors.New("billing period not found")
	ErrDuplicatePeriod = errors.New("billing period already exists")

	// Line item errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidInstallments = errors.New("installment count must be at least 1")
	ErrLineItemNotFound    = errors.New("line item not found")

	// Category errors
	ErrCategoryNotFound = errors.New("category not found")

	// Job errors
	ErrJobNotFound       = errors.New("job not found")
	ErrUnknownJobType    = errors.New("unknown job type")
	ErrJobNotCancellable = errors.New("job can only be cancelled while pending")

	// Feed errors
	ErrFeedLinkNotFound = errors.New("feed link not found")

	// Source file errors
	ErrSourceUnavailable = errors.New("source file unavailable")
)

// ValidationError reports a missing or invalid payload field. Jobs failing
// with a ValidationError leave no partial state behind.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
	err    error
}

// NewNotFoundError creates a NotFoundError wrapping the entity's sentinel.
func NewNotFoundError(entity, id string, sentinel error) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id, err: sentinel}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.err
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError or one of the
// not-found sentinels.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}

	switch {
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrPeriodNotFound),
		errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrJobNotFound),
		errors.Is(err, ErrLineItemNotFound),
		errors.Is(err, ErrFeedLinkNotFound):
		return true
	}

	return false
}
