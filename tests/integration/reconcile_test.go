package integration

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/tests/testutil"
)

func TestReconcileRepairsDriftedBalances(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := testutil.NewEngine(t, testDB)
	card := testDB.CreateCreditCard(ctx, "owner-1", 100000)

	payload, err := json.Marshal(domain.ManualTransactionPayload{
		OwnerID: "owner-1",
		Fields: domain.TransactionFields{
			AccountID:   card.ID,
			PostedAt:    "2025-03-05",
			Description: "Dinner",
			Amount:      12000,
			Type:        domain.TransactionExpense,
		},
	})
	require.NoError(t, err)

	job := engine.Run(ctx, t, "owner-1", domain.JobTypeManualTransaction, payload)
	require.Equal(t, domain.JobStatusCompleted, job.Status)

	_, err = testDB.Pool.Exec(ctx, `UPDATE accounts SET used_balance = 1 WHERE id = $1`, card.ID)
	require.NoError(t, err)

	report, err := engine.Reconciler.ReconcileAccount(ctx, card.ID, false)
	require.NoError(t, err)
	assert.False(t, report.IsReconciled())
	assert.Equal(t, int64(1), report.RecordedUsed)
	assert.Equal(t, int64(12000), report.CalculatedUsed)

	repaired, err := engine.Reconciler.ReconcileAccount(ctx, card.ID, true)
	require.NoError(t, err)
	assert.True(t, repaired.Repaired)

	after, err := engine.Reconciler.ReconcileAccount(ctx, card.ID, false)
	require.NoError(t, err)
	assert.True(t, after.IsReconciled())

	account, err := engine.Accounts.GetAccount(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), account.UsedBalance)
}
