package domain

import (
	"testing"
	"time"
)

func TestFingerprint_Normalises(t *testing.T) {
	a := NewFingerprint(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), "  Coffee   Shop ", -450)
	b := NewFingerprint(time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC), "Coffee Shop", -450)

	if a != b {
		t.Fatalf("expected equal fingerprints, got %+v and %+v", a, b)
	}
	if a.Key() != b.Key() {
		t.Fatal("expected equal keys")
	}
}

func TestFingerprint_AmountSignMatters(t *testing.T) {
	a := NewFingerprint(date(2024, 3, 1), "Refund", 450)
	b := NewFingerprint(date(2024, 3, 1), "Refund", -450)

	if a.Key() == b.Key() {
		t.Fatal("expected different keys for opposite signs")
	}
}

func TestTransactionType_SignedAmount(t *testing.T) {
	if got := TransactionExpense.SignedAmount(100); got != -100 {
		t.Fatalf("expected -100, got %d", got)
	}
	if got := TransactionIncome.SignedAmount(100); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestDeterministicID(t *testing.T) {
	if DeterministicID("job-1", 1) != DeterministicID("job-1", 1) {
		t.Fatal("expected stable id")
	}
	if DeterministicID("job-1", 1) == DeterministicID("job-1", 2) {
		t.Fatal("expected distinct ids per position")
	}
	if DeterministicID("job-1", 1) == DeterministicID("job-2", 1) {
		t.Fatal("expected distinct ids per job")
	}
}
