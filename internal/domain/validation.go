package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrInvalidAmountText  = errors.New("invalid amount")
)

// Validation constants
const (
	MaxAccountNameLength  = 255
	MinAccountNameLength  = 1
	MaxDescriptionLength  = 512
	MaxCategoryNameLength = 100
	MaxInstallments       = 72
	MaxAmount             = int64(100_000_000_000) // 1 billion in minor units
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "ARS": true, "CLP": true, "HKD": true,
}

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateDayOfMonth checks a nominal day of month. Days that do not exist in
// a given month are clamped later, so 29 to 31 are accepted.
func ValidateDayOfMonth(field string, day int) error {
	if day < 1 || day > 31 {
		return NewValidationError(field, fmt.Sprintf("must be between 1 and 31, got %d", day))
	}
	return nil
}

// ValidateAmount validates a positive magnitude in minor units.
func ValidateAmount(field string, amount int64) error {
	if amount <= 0 {
		return NewValidationError(field, ErrInvalidAmount.Error())
	}
	if amount > MaxAmount {
		return NewValidationError(field, ErrAmountTooLarge.Error())
	}
	return nil
}

// ValidateInstallmentTotal checks an optional installment count.
func ValidateInstallmentTotal(n *int) error {
	if n == nil {
		return nil
	}
	if *n < 1 || *n > MaxInstallments {
		return NewValidationError("installment_total", fmt.Sprintf("must be between 1 and %d", MaxInstallments))
	}
	return nil
}

// ValidateDescription rejects empty or oversized descriptions.
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return NewValidationError("description", "is required")
	}
	if len(description) > MaxDescriptionLength {
		return NewValidationError("description", fmt.Sprintf("exceeds %d characters", MaxDescriptionLength))
	}
	return nil
}

// ValidateCategoryName rejects empty or oversized category names.
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "is required")
	}
	if len(name) > MaxCategoryNameLength {
		return NewValidationError("name", fmt.Sprintf("exceeds %d characters", MaxCategoryNameLength))
	}
	return nil
}

// ParseAmount converts a decimal string such as "-1,234.56" or "12.5" into
// signed minor units. Thousands separators are dropped and the value is
// rounded half away from zero to two decimal places.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmountText)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmountText, s)
	}

	minor := d.Shift(2).Round(0)
	if minor.Abs().GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return 0, fmt.Errorf("%w: %q", ErrAmountTooLarge, s)
	}

	return minor.IntPart(), nil
}

// FormatAmount renders signed minor units as a two-decimal string.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
