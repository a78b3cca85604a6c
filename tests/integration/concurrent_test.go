package integration

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/tests/testutil"
)

func TestConcurrentPurchasesShareBillingPeriods(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	engine := testutil.NewEngine(t, testDB)
	card := testDB.CreateCreditCard(ctx, "owner-1", 1000000)

	const workers = 5
	total := 2

	var wg sync.WaitGroup
	jobs := make(chan *domain.Job, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			payload, err := json.Marshal(domain.ManualTransactionPayload{
				OwnerID: "owner-1",
				Fields: domain.TransactionFields{
					AccountID:        card.ID,
					PostedAt:         "2025-03-05",
					Description:      "Concert ticket",
					Amount:           10000,
					Type:             domain.TransactionExpense,
					InstallmentTotal: &total,
				},
			})
			if err != nil {
				t.Errorf("marshal payload: %v", err)
				return
			}

			job, err := engine.Jobs.Submit(ctx, usecase.SubmitJobInput{
				OwnerID: "owner-1",
				Type:    domain.JobTypeManualTransaction,
				Payload: payload,
			})
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			if err := engine.Dispatcher.Dispatch(ctx, job.ID); err != nil {
				t.Errorf("dispatch %s: %v", job.ID, err)
				return
			}

			finished, err := engine.Jobs.Get(ctx, job.ID)
			if err != nil {
				t.Errorf("get %s: %v", job.ID, err)
				return
			}
			jobs <- finished
		}()
	}

	wg.Wait()
	close(jobs)

	require.Len(t, jobs, workers)
	for job := range jobs {
		assert.Equal(t, domain.JobStatusCompleted, job.Status, "job %s: %v", job.ID, job.ErrorSummary)
	}

	periods, err := engine.Accounts.ListPeriods(ctx, card.ID, 12, 0)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	for _, p := range periods {
		assert.Equal(t, int64(workers*5000), p.TotalAmount)
	}

	account, err := engine.Accounts.GetAccount(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*10000), account.UsedBalance)

	result, err := engine.Reconciler.ReconcileAccount(ctx, card.ID, false)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled())
}
