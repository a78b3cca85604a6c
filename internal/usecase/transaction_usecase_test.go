package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/usecase/mocks"
)

func (e *engine) manualHandler() *usecase.ManualTransactionHandler {
	return usecase.NewManualTransactionHandler(e.txManager, e.accounts, e.categories, e.posting, e.payments, e.tracker, nil, zerolog.Nop())
}

func (e *engine) reassignHandler() *usecase.CategoryReassignHandler {
	return usecase.NewCategoryReassignHandler(e.txManager, e.categories, e.lineItems, e.tracker)
}

func manualPayload(f domain.TransactionFields) *domain.ManualTransactionPayload {
	return &domain.ManualTransactionPayload{OwnerID: testOwner, Fields: f}
}

func TestManualTransactionHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("installment purchase", func(t *testing.T) {
		e := newEngine(creditAccount("acc-1"))
		h := e.manualHandler()

		payload := manualPayload(domain.TransactionFields{
			AccountID:        "acc-1",
			PostedAt:         "2025-03-05",
			Description:      "Laptop",
			Amount:           90000,
			Type:             domain.TransactionExpense,
			InstallmentTotal: ptr(3),
		})
		job := e.newJob(t, "job-1", domain.JobTypeManualTransaction, payload)

		result, err := h.Handle(ctx, job, payload)
		require.NoError(t, err)

		assert.Equal(t, domain.JobProgress{Processed: 3, Total: 3, Imported: 3, BillItemsCreated: 3}, result.Progress)
		assert.Len(t, e.periods.All(), 3)
		assert.Equal(t, int64(90000), e.accounts.Account("acc-1").UsedBalance)
		assert.Equal(t, 1, e.txManager.RunInTxCalls)

		for i, item := range e.lineItems.All() {
			assert.Equal(t, domain.DeterministicID("job-1", i), item.ID)
			assert.Equal(t, int64(-30000), item.Amount)
			assert.Equal(t, domain.SourceManual, item.Source)
		}
	})

	t.Run("redelivered job creates nothing twice", func(t *testing.T) {
		e := newEngine(creditAccount("acc-1"))
		h := e.manualHandler()

		payload := manualPayload(domain.TransactionFields{
			AccountID:        "acc-1",
			PostedAt:         "2025-03-05",
			Description:      "Laptop",
			Amount:           90000,
			Type:             domain.TransactionExpense,
			InstallmentTotal: ptr(3),
		})
		job := e.newJob(t, "job-1", domain.JobTypeManualTransaction, payload)

		_, err := h.Handle(ctx, job, payload)
		require.NoError(t, err)

		result, err := h.Handle(ctx, job, payload)
		require.NoError(t, err)

		assert.Equal(t, domain.JobProgress{Processed: 3, Total: 3, Skipped: 3}, result.Progress)
		assert.Len(t, e.lineItems.All(), 3)
		assert.Equal(t, int64(90000), e.accounts.Account("acc-1").UsedBalance)
	})

	t.Run("income on a checking account", func(t *testing.T) {
		e := newEngine(checkingAccount("chk-1"))
		e.categories = mocks.NewMockCategoryRepository(&domain.Category{ID: "cat-salary", OwnerID: testOwner, Name: "Salary"})
		h := e.manualHandler()

		payload := manualPayload(domain.TransactionFields{
			AccountID:   "chk-1",
			CategoryID:  ptr("cat-salary"),
			PostedAt:    "2025-03-01",
			Description: "Salary",
			Amount:      500000,
			Type:        domain.TransactionIncome,
		})
		result, err := h.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeManualTransaction, payload), payload)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Progress.Imported)
		assert.Zero(t, result.Progress.BillItemsCreated)
		assert.Empty(t, e.periods.All())
		assert.Equal(t, int64(500000), e.accounts.Account("chk-1").Balance)
		assert.Equal(t, "cat-salary", *e.lineItems.All()[0].CategoryID)
	})

	t.Run("payment on a credit account is allocated", func(t *testing.T) {
		e := newEngine(creditAccount("acc-1"))
		e.openPeriod("A", "acc-1", date(2025, time.February, 1), 30000)
		h := e.manualHandler()

		payload := manualPayload(domain.TransactionFields{
			AccountID:   "acc-1",
			PostedAt:    "2025-03-18",
			Description: "Card bill",
			Amount:      10000,
			Type:        domain.TransactionPayment,
		})
		job := e.newJob(t, "job-1", domain.JobTypeManualTransaction, payload)

		result, err := h.Handle(ctx, job, payload)
		require.NoError(t, err)
		assert.Equal(t, domain.JobProgress{Processed: 1, Total: 1, Imported: 1}, result.Progress)

		period := e.periods.Period("A")
		assert.Equal(t, int64(10000), period.PaidAmount)
		assert.Equal(t, domain.PeriodStatusPartial, period.Status)

		audit, err := e.lineItems.GetByID(ctx, domain.DeterministicID("job-1", 0))
		require.NoError(t, err)
		assert.Equal(t, "Card bill", audit.Description)

		result, err = h.Handle(ctx, job, payload)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Progress.Skipped)
		assert.Equal(t, int64(10000), e.periods.Period("A").PaidAmount)
	})

	t.Run("rejects references the owner cannot see", func(t *testing.T) {
		foreign := creditAccount("acc-9")
		foreign.OwnerID = "owner-2"
		e := newEngine(creditAccount("acc-1"), foreign)
		e.categories = mocks.NewMockCategoryRepository(&domain.Category{ID: "cat-9", OwnerID: "owner-2", Name: "Theirs"})
		h := e.manualHandler()

		fields := domain.TransactionFields{
			AccountID:   "acc-9",
			PostedAt:    "2025-03-05",
			Description: "Lunch",
			Amount:      2500,
			Type:        domain.TransactionExpense,
		}
		payload := manualPayload(fields)
		_, err := h.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeManualTransaction, payload), payload)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)

		fields.AccountID = "acc-1"
		fields.CategoryID = ptr("cat-9")
		payload = manualPayload(fields)
		_, err = h.Handle(ctx, e.newJob(t, "job-2", domain.JobTypeManualTransaction, payload), payload)
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

		assert.Empty(t, e.lineItems.All())
	})

	t.Run("installments on a checking account", func(t *testing.T) {
		e := newEngine(checkingAccount("chk-1"))
		h := e.manualHandler()

		payload := manualPayload(domain.TransactionFields{
			AccountID:        "chk-1",
			PostedAt:         "2025-03-05",
			Description:      "TV",
			Amount:           3000,
			Type:             domain.TransactionExpense,
			InstallmentTotal: ptr(3),
		})
		_, err := h.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeManualTransaction, payload), payload)
		assert.True(t, domain.IsValidation(err))
		assert.Empty(t, e.lineItems.All())
	})
}

func TestCategoryReassignHandler_Handle(t *testing.T) {
	ctx := context.Background()

	e := newEngine(checkingAccount("chk-1"))
	e.categories = mocks.NewMockCategoryRepository(
		&domain.Category{ID: "cat-a", OwnerID: testOwner, Name: "Old"},
		&domain.Category{ID: "cat-b", OwnerID: testOwner, Name: "New"},
		&domain.Category{ID: "cat-x", OwnerID: "owner-2", Name: "Theirs"},
	)
	e.lineItems = mocks.NewMockLineItemRepository(
		&domain.LineItem{ID: "li-1", AccountID: "chk-1", CategoryID: ptr("cat-a")},
		&domain.LineItem{ID: "li-2", AccountID: "chk-1", CategoryID: ptr("cat-a")},
		&domain.LineItem{ID: "li-3", AccountID: "chk-1", CategoryID: ptr("cat-b")},
		&domain.LineItem{ID: "li-4", AccountID: "chk-1"},
	)
	h := e.reassignHandler()

	payload := &domain.CategoryReassignPayload{SourceCategoryID: "cat-a", TargetCategoryID: "cat-b"}
	result, err := h.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeCategoryReassign, payload), payload)
	require.NoError(t, err)

	assert.Equal(t, domain.JobProgress{Processed: 2, Total: 2, Imported: 2}, result.Progress)
	for _, item := range e.lineItems.All()[:3] {
		assert.Equal(t, "cat-b", *item.CategoryID)
	}
	assert.Nil(t, e.lineItems.All()[3].CategoryID)

	foreign := &domain.CategoryReassignPayload{SourceCategoryID: "cat-b", TargetCategoryID: "cat-x"}
	_, err = h.Handle(ctx, e.newJob(t, "job-2", domain.JobTypeCategoryReassign, foreign), foreign)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestBotOperationHandler_Handle(t *testing.T) {
	ctx := context.Background()

	newBot := func(e *engine) *usecase.BotOperationHandler {
		return usecase.NewBotOperationHandler(e.manualHandler(), e.reassignHandler())
	}

	botPayload := func(t *testing.T, intent domain.BotIntent, fields any) *domain.BotOperationPayload {
		raw, err := json.Marshal(fields)
		require.NoError(t, err)
		return &domain.BotOperationPayload{OwnerID: testOwner, Intent: intent, Fields: raw}
	}

	t.Run("create transaction", func(t *testing.T) {
		e := newEngine(creditAccount("acc-1"))
		payload := botPayload(t, domain.BotIntentCreateTransaction, domain.TransactionFields{
			AccountID:   "acc-1",
			PostedAt:    "2025-03-05",
			Description: "Pizza",
			Amount:      4500,
			Type:        domain.TransactionExpense,
		})

		result, err := newBot(e).Handle(ctx, e.newJob(t, "job-1", domain.JobTypeBotOperation, payload), payload)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Progress.Imported)
		item := e.lineItems.All()[0]
		assert.Equal(t, domain.SourceBot, item.Source)
		assert.Equal(t, int64(-4500), item.Amount)
	})

	t.Run("pay bill", func(t *testing.T) {
		e := newEngine(creditAccount("acc-1"))
		e.openPeriod("A", "acc-1", date(2025, time.February, 1), 30000)

		payload := botPayload(t, domain.BotIntentPayBill, domain.PayBillFields{
			AccountID: "acc-1",
			Amount:    30000,
			PaidOn:    "2025-03-10",
		})

		_, err := newBot(e).Handle(ctx, e.newJob(t, "job-1", domain.JobTypeBotOperation, payload), payload)
		require.NoError(t, err)

		assert.Equal(t, domain.PeriodStatusPaid, e.periods.Period("A").Status)
		audit, err := e.lineItems.GetByID(ctx, domain.DeterministicID("job-1", 0))
		require.NoError(t, err)
		assert.Equal(t, domain.SourceBot, audit.Source)
	})

	t.Run("reassign category", func(t *testing.T) {
		e := newEngine()
		e.categories = mocks.NewMockCategoryRepository(
			&domain.Category{ID: "cat-a", OwnerID: testOwner, Name: "Old"},
			&domain.Category{ID: "cat-b", OwnerID: testOwner, Name: "New"},
		)
		e.lineItems = mocks.NewMockLineItemRepository(&domain.LineItem{ID: "li-1", CategoryID: ptr("cat-a")})

		payload := botPayload(t, domain.BotIntentReassignCategory, domain.CategoryReassignPayload{
			SourceCategoryID: "cat-a",
			TargetCategoryID: "cat-b",
		})

		result, err := newBot(e).Handle(ctx, e.newJob(t, "job-1", domain.JobTypeBotOperation, payload), payload)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Progress.Imported)
	})

	t.Run("invalid fields", func(t *testing.T) {
		e := newEngine(creditAccount("acc-1"))
		payload := botPayload(t, domain.BotIntentPayBill, map[string]any{"account_id": "acc-1"})

		_, err := newBot(e).Handle(ctx, e.newJob(t, "job-1", domain.JobTypeBotOperation, payload), payload)
		assert.True(t, domain.IsValidation(err))
	})
}
