package usecase_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/usecase/mocks"
)

func TestDedupFilter_Filter(t *testing.T) {
	ctx := context.Background()

	existing := mocks.NewMockLineItemRepository(
		&domain.LineItem{
			ID:          "li-1",
			AccountID:   "acc-1",
			Amount:      -1000,
			PostedAt:    date(2025, time.March, 1),
			Description: "Market",
			ExternalID:  ptr("ext-1"),
		},
		&domain.LineItem{
			ID:          "li-2",
			AccountID:   "acc-1",
			Amount:      -1500,
			PostedAt:    date(2025, time.March, 2),
			Description: "Coffee shop",
		},
		&domain.LineItem{
			ID:          "li-3",
			AccountID:   "acc-other",
			Amount:      -700,
			PostedAt:    date(2025, time.March, 3),
			Description: "Bakery",
			ExternalID:  ptr("ext-9"),
		},
	)

	records := []domain.ImportRecord{
		{ExternalID: "ext-1", PostedAt: date(2025, time.March, 1), Description: "Market", Amount: -1000},
		{ExternalID: "ext-2", PostedAt: date(2025, time.March, 4), Description: "Gas", Amount: -9000},
		{ExternalID: "ext-2", PostedAt: date(2025, time.March, 4), Description: "Gas", Amount: -9000},
		{PostedAt: time.Date(2025, time.March, 2, 18, 30, 0, 0, time.UTC), Description: " Coffee   shop", Amount: -1500},
		{PostedAt: date(2025, time.March, 2), Description: "Coffee shop", Amount: -1600},
		{ExternalID: "ext-9", PostedAt: date(2025, time.March, 3), Description: "Bakery", Amount: -700},
	}

	filter := usecase.NewDedupFilter(existing, 2, nil, zerolog.Nop())
	kept, stats, err := filter.Filter(ctx, "acc-1", records)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ByExternalID)
	assert.Equal(t, 1, stats.ByFingerprint)
	assert.Equal(t, 3, stats.Total())

	require.Len(t, kept, 3)
	assert.Equal(t, "ext-2", kept[0].ExternalID)
	assert.Equal(t, int64(-1600), kept[1].Amount)
	assert.Equal(t, "ext-9", kept[2].ExternalID, "ids are scoped to the account")

	// three distinct ids in chunks of two; four tier-two candidates in chunks of two
	assert.Equal(t, 2, existing.FindExternalIDsCalls)
	assert.Equal(t, 2, existing.FindFingerprintsCalls)
}

func TestDedupFilter_ChunksNeverExceedLimit(t *testing.T) {
	var largest int
	repo := mocks.NewMockLineItemRepository()
	repo.FindExternalIDsFunc = func(ctx context.Context, accountID string, ids []string) ([]string, error) {
		largest = max(largest, len(ids))
		return nil, nil
	}
	repo.FindFingerprintsFunc = func(ctx context.Context, accountID string, dates []time.Time, descriptions []string) ([]domain.Fingerprint, error) {
		largest = max(largest, len(descriptions))
		return nil, nil
	}

	records := make([]domain.ImportRecord, 1201)
	for i := range records {
		records[i] = domain.ImportRecord{
			ExternalID:  "ext-" + strconv.Itoa(i),
			PostedAt:    date(2025, time.January, 1).AddDate(0, 0, i%28),
			Description: "item " + strconv.Itoa(i),
			Amount:      int64(-i),
		}
	}

	filter := usecase.NewDedupFilter(repo, 500, nil, zerolog.Nop())
	kept, stats, err := filter.Filter(context.Background(), "acc-1", records)
	require.NoError(t, err)

	assert.Len(t, kept, 1201)
	assert.Zero(t, stats.Total())
	assert.LessOrEqual(t, largest, 500)
	assert.Equal(t, 3, repo.FindExternalIDsCalls)
	assert.Equal(t, 3, repo.FindFingerprintsCalls)
}

func TestDedupFilter_StorageError(t *testing.T) {
	repo := mocks.NewMockLineItemRepository()
	repo.FindExternalIDsFunc = func(ctx context.Context, accountID string, ids []string) ([]string, error) {
		return nil, assert.AnError
	}

	filter := usecase.NewDedupFilter(repo, 0, nil, zerolog.Nop())
	_, _, err := filter.Filter(context.Background(), "acc-1", []domain.ImportRecord{{ExternalID: "x"}})
	assert.ErrorIs(t, err, assert.AnError)
}
