package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

func TestPaymentAllocator_Allocate(t *testing.T) {
	ctx := context.Background()

	setup := func() *engine {
		e := newEngine(creditAccount("acc-1"))
		e.openPeriod("A", "acc-1", date(2025, time.February, 1), 30000)
		e.openPeriod("B", "acc-1", date(2025, time.March, 1), 40000)
		return e
	}

	t.Run("oldest due first", func(t *testing.T) {
		e := setup()

		result, err := e.payments.Allocate(ctx, nil, usecase.PaymentInput{
			Account: creditAccount("acc-1"),
			Amount:  50000,
			PaidOn:  date(2025, time.March, 18),
			AuditID: "pay-1",
		})
		require.NoError(t, err)

		assert.Equal(t, int64(50000), result.Applied)
		assert.Zero(t, result.Unapplied)
		assert.Equal(t, []usecase.Allocation{
			{PeriodID: "A", Applied: 30000, Status: domain.PeriodStatusPaid},
			{PeriodID: "B", Applied: 20000, Status: domain.PeriodStatusPartial},
		}, result.Allocations)

		a, b := e.periods.Period("A"), e.periods.Period("B")
		assert.Equal(t, int64(30000), a.PaidAmount)
		assert.Equal(t, domain.PeriodStatusPaid, a.Status)
		assert.Equal(t, int64(20000), b.PaidAmount)
		assert.Equal(t, domain.PeriodStatusPartial, b.Status)
		require.NotNil(t, b.LastPaymentDate)
		assert.Equal(t, date(2025, time.March, 18), *b.LastPaymentDate)

		account := e.accounts.Account("acc-1")
		assert.Equal(t, int64(20000), account.UsedBalance)
		assert.Equal(t, int64(80000), account.AvailableBalance)

		audit, err := e.lineItems.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionPayment, audit.Type)
		assert.Equal(t, int64(50000), audit.Amount)
		assert.Nil(t, audit.PeriodID)
		assert.Equal(t, "Bill payment", audit.Description)
	})

	t.Run("excess is discarded", func(t *testing.T) {
		e := setup()

		result, err := e.payments.Allocate(ctx, nil, usecase.PaymentInput{
			Account: creditAccount("acc-1"),
			Amount:  100000,
			PaidOn:  date(2025, time.March, 18),
			AuditID: "pay-1",
		})
		require.NoError(t, err)

		assert.Equal(t, int64(70000), result.Applied)
		assert.Equal(t, int64(30000), result.Unapplied)

		for _, p := range e.periods.All() {
			assert.Equal(t, p.TotalAmount, p.PaidAmount)
			assert.Equal(t, domain.PeriodStatusPaid, p.Status)
		}
		assert.Equal(t, int64(100000), e.accounts.Account("acc-1").AvailableBalance)
	})

	t.Run("replayed payment applies nothing", func(t *testing.T) {
		e := setup()
		input := usecase.PaymentInput{
			Account: creditAccount("acc-1"),
			Amount:  10000,
			PaidOn:  date(2025, time.March, 18),
			AuditID: "pay-1",
		}

		_, err := e.payments.Allocate(ctx, nil, input)
		require.NoError(t, err)

		result, err := e.payments.Allocate(ctx, nil, input)
		require.NoError(t, err)
		assert.True(t, result.Replayed)
		assert.Zero(t, result.Applied)

		assert.Equal(t, int64(10000), e.periods.Period("A").PaidAmount)
		assert.Zero(t, e.periods.Period("B").PaidAmount)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		e := newEngine(creditAccount("acc-1"), checkingAccount("chk-1"))

		_, err := e.payments.Allocate(ctx, nil, usecase.PaymentInput{Account: checkingAccount("chk-1"), Amount: 100, AuditID: "x"})
		assert.True(t, domain.IsValidation(err))

		_, err = e.payments.Allocate(ctx, nil, usecase.PaymentInput{Account: creditAccount("acc-1"), Amount: 0, AuditID: "y"})
		assert.True(t, domain.IsValidation(err))

		assert.Empty(t, e.lineItems.All())
	})
}
