package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusProcessing.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
}

func TestDecodePayload_UnknownType(t *testing.T) {
	_, err := DecodePayload("reindex", json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownJobType) {
		t.Fatalf("expected ErrUnknownJobType, got %v", err)
	}
}

func TestDecodePayload_Manual(t *testing.T) {
	raw := json.RawMessage(`{
		"owner_id": "user-1",
		"fields": {
			"account_id": "acc-1",
			"posted_at": "2024-03-15",
			"description": "Laptop",
			"amount": 100000,
			"type": "expense",
			"installment_total": 3
		}
	}`)

	p, err := DecodePayload(JobTypeManualTransaction, raw)
	require.NoError(t, err)

	manual, ok := p.(*ManualTransactionPayload)
	require.True(t, ok)
	assert.Equal(t, "acc-1", manual.Fields.AccountID)
	assert.Equal(t, 3, manual.Fields.Installments())
	assert.Equal(t, TransactionExpense, manual.Fields.Type)
}

func TestDecodePayload_ValidationFailures(t *testing.T) {
	tests := []struct {
		name      string
		jobType   JobType
		raw       string
		wantField string
	}{
		{name: "empty payload", jobType: JobTypeFileImport, raw: "", wantField: "payload"},
		{name: "malformed json", jobType: JobTypeFileImport, raw: `{"storage_location":`, wantField: "payload"},
		{name: "missing location", jobType: JobTypeFileImport, raw: `{"options":{}}`, wantField: "storage_location"},
		{name: "bad format", jobType: JobTypeFileImport, raw: `{"storage_location":"local://a.csv","format":"xls"}`, wantField: "format"},
		{name: "missing owner", jobType: JobTypeManualTransaction, raw: `{"fields":{}}`, wantField: "owner_id"},
		{
			name:      "zero amount",
			jobType:   JobTypeManualTransaction,
			raw:       `{"owner_id":"u","fields":{"account_id":"a","posted_at":"2024-01-01","description":"x","amount":0,"type":"expense"}}`,
			wantField: "amount",
		},
		{
			name:      "bad date",
			jobType:   JobTypeManualTransaction,
			raw:       `{"owner_id":"u","fields":{"account_id":"a","posted_at":"01/02/2024","description":"x","amount":5,"type":"expense"}}`,
			wantField: "posted_at",
		},
		{
			name:      "split payment",
			jobType:   JobTypeManualTransaction,
			raw:       `{"owner_id":"u","fields":{"account_id":"a","posted_at":"2024-01-01","description":"x","amount":5,"type":"payment","installment_total":2}}`,
			wantField: "installment_total",
		},
		{name: "feed without link", jobType: JobTypeFeedImport, raw: `{"transactions":[{"id":"t1"}]}`, wantField: "link_id"},
		{name: "feed without transactions", jobType: JobTypeFeedImport, raw: `{"link_id":"l1","transactions":[]}`, wantField: "transactions"},
		{name: "reassign same category", jobType: JobTypeCategoryReassign, raw: `{"source_category_id":"c1","target_category_id":"c1"}`, wantField: "target_category_id"},
		{name: "bot unknown intent", jobType: JobTypeBotOperation, raw: `{"owner_id":"u","intent":"tell_joke","fields":{}}`, wantField: "intent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.jobType, json.RawMessage(tt.raw))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestBotOperationPayload_DecodeFields(t *testing.T) {
	raw := json.RawMessage(`{"owner_id":"u","intent":"pay_bill","fields":{"account_id":"acc-1","amount":50000,"paid_on":"2024-04-18"}}`)

	p, err := DecodePayload(JobTypeBotOperation, raw)
	require.NoError(t, err)

	bot := p.(*BotOperationPayload)
	var fields PayBillFields
	require.NoError(t, bot.DecodeFields(&fields))
	assert.Equal(t, int64(50000), fields.Amount)

	bad := &BotOperationPayload{OwnerID: "u", Intent: BotIntentPayBill, Fields: json.RawMessage(`{"account_id":"acc-1","amount":-1,"paid_on":"2024-04-18"}`)}
	assert.True(t, IsValidation(bad.DecodeFields(&fields)))
}

func TestImportRecord_InferType(t *testing.T) {
	assert.Equal(t, TransactionExpense, (&ImportRecord{Amount: -100}).InferType())
	assert.Equal(t, TransactionIncome, (&ImportRecord{Amount: 100}).InferType())
	assert.Equal(t, TransactionPayment, (&ImportRecord{Amount: 100, Type: TransactionPayment}).InferType())
}
