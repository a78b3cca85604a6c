package domain

import (
	"errors"
	"testing"
)

func TestAccount_AvailableFor(t *testing.T) {
	acc := &Account{Kind: AccountKindCreditCard, CreditLimit: 100000}

	tests := []struct {
		name string
		used int64
		want int64
	}{
		{name: "nothing used", used: 0, want: 100000},
		{name: "partially used", used: 30000, want: 70000},
		{name: "fully used", used: 100000, want: 0},
		{name: "over limit clamps to zero", used: 120000, want: 0},
		{name: "credit balance adds headroom", used: -5000, want: 105000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := acc.AvailableFor(tt.used); got != tt.want {
				t.Errorf("AvailableFor(%d) = %d, want %d", tt.used, got, tt.want)
			}
		})
	}
}

func TestAccount_IsRevolvingCredit(t *testing.T) {
	if !(&Account{Kind: AccountKindCreditCard}).IsRevolvingCredit() {
		t.Error("credit card should be revolving credit")
	}
	if (&Account{Kind: AccountKindChecking}).IsRevolvingCredit() {
		t.Error("checking should not be revolving credit")
	}
}

func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name      string
		account   Account
		wantField string
		wantErr   error
	}{
		{
			name:    "valid credit card",
			account: Account{Name: "Gold", Kind: AccountKindCreditCard, CreditLimit: 500000, ClosingDay: 31, DueDay: 10},
		},
		{
			name:    "checking ignores billing days",
			account: Account{Name: "Main", Kind: AccountKindChecking},
		},
		{
			name:    "empty name",
			account: Account{Name: " ", Kind: AccountKindChecking},
			wantErr: ErrInvalidAccountName,
		},
		{
			name:      "unknown kind",
			account:   Account{Name: "Odd", Kind: "loan"},
			wantField: "kind",
		},
		{
			name:      "closing day out of range",
			account:   Account{Name: "Gold", Kind: AccountKindCreditCard, ClosingDay: 0, DueDay: 10},
			wantField: "closing_day",
		},
		{
			name:      "due day out of range",
			account:   Account{Name: "Gold", Kind: AccountKindCreditCard, ClosingDay: 5, DueDay: 32},
			wantField: "due_day",
		},
		{
			name:      "negative limit",
			account:   Account{Name: "Gold", Kind: AccountKindCreditCard, CreditLimit: -1, ClosingDay: 5, DueDay: 15},
			wantField: "credit_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.wantField != "":
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if ve.Field != tt.wantField {
					t.Fatalf("expected field %s, got %s", tt.wantField, ve.Field)
				}
			default:
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			}
		})
	}
}
