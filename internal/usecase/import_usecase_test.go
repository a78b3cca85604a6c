package usecase_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/usecase/mocks"
)

const statementLocation = "file:///uploads/statement.csv"

func statementRecords() []domain.ImportRecord {
	return []domain.ImportRecord{
		{ExternalID: "ext-1", PostedAt: date(2025, time.March, 2), Description: "Coffee", Amount: -1500, Category: "Food"},
		{ExternalID: "ext-2", PostedAt: date(2025, time.March, 12), Description: "Flight", Amount: -40000, Category: " Travel "},
		{PostedAt: date(2025, time.March, 14), Description: "Bookstore", Amount: -2500},
	}
}

func expectStatement(ctrl *gomock.Controller, times int) (*mocks.MockFileStore, *mocks.MockNormalizer) {
	files := mocks.NewMockFileStore(ctrl)
	files.EXPECT().Open(gomock.Any(), statementLocation).DoAndReturn(func(ctx context.Context, location string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("raw")), nil
	}).Times(times)

	normalizer := mocks.NewMockNormalizer(ctrl)
	normalizer.EXPECT().Normalize("csv", statementLocation, []byte("raw")).DoAndReturn(func(format, name string, data []byte) ([]domain.ImportRecord, error) {
		return statementRecords(), nil
	}).Times(times)

	return files, normalizer
}

func TestFileImportHandler_Handle(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	e := newEngine(creditAccount("acc-1"))
	food := &domain.Category{ID: "cat-food", OwnerID: testOwner, Name: "Food"}
	e.categories = mocks.NewMockCategoryRepository(food)

	files, normalizer := expectStatement(ctrl, 2)
	handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, true, zerolog.Nop())

	payload := &domain.FileImportPayload{
		StorageLocation: statementLocation,
		Format:          "csv",
		Options: domain.ImportOptions{
			AccountID:          ptr("acc-1"),
			CategoryMappings:   map[string]string{"Food": "cat-food"},
			CategoriesToCreate: []string{"Travel"},
			DeleteAfterImport:  ptr(false),
		},
	}

	first := e.newJob(t, "job-1", domain.JobTypeFileImport, payload)
	result, err := handler.Handle(ctx, first, payload)
	require.NoError(t, err)

	assert.False(t, result.Failed)
	assert.Equal(t, domain.JobProgress{Processed: 3, Total: 3, Imported: 3, BillItemsCreated: 3}, result.Progress)
	assert.Equal(t, result.Progress, e.jobs.Job("job-1").Progress)

	categories, err := e.categories.ListByOwner(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	var travelID string
	for _, c := range categories {
		if c.Name == "Travel" {
			travelID = c.ID
		}
	}
	require.NotEmpty(t, travelID)

	items := e.lineItems.All()
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, domain.SourceImport, item.Source)
		require.NotNil(t, item.JobID)
		assert.Equal(t, "job-1", *item.JobID)
		assert.Equal(t, domain.TransactionExpense, item.Type)
		assert.Nil(t, item.InstallmentTotal)
		assert.Nil(t, item.ParentID)
	}
	assert.Equal(t, "cat-food", *items[0].CategoryID)
	assert.Equal(t, travelID, *items[1].CategoryID)
	assert.Nil(t, items[2].CategoryID)
	assert.Nil(t, items[2].ExternalID)

	periods := e.periods.All()
	require.Len(t, periods, 2)
	assert.Equal(t, int64(1500), periods[0].TotalAmount)
	assert.Equal(t, int64(42500), periods[1].TotalAmount)
	assert.Equal(t, int64(44000), e.accounts.Account("acc-1").UsedBalance)

	// importing the same file again writes nothing
	second := e.newJob(t, "job-2", domain.JobTypeFileImport, payload)
	result, err = handler.Handle(ctx, second, payload)
	require.NoError(t, err)

	assert.Equal(t, domain.JobProgress{Processed: 3, Total: 3, Skipped: 3}, result.Progress)
	assert.Len(t, e.lineItems.All(), 3)
	assert.Len(t, e.periods.All(), 2)
	assert.Equal(t, int64(44000), e.accounts.Account("acc-1").UsedBalance)

	categories, err = e.categories.ListByOwner(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestFileImportHandler_DeletesSourceFile(t *testing.T) {
	ctx := context.Background()
	payload := &domain.FileImportPayload{
		StorageLocation: statementLocation,
		Format:          "csv",
		Options:         domain.ImportOptions{AccountID: ptr("acc-1")},
	}

	t.Run("after a successful import", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		e := newEngine(creditAccount("acc-1"))

		files, normalizer := expectStatement(ctrl, 1)
		files.EXPECT().Delete(gomock.Any(), statementLocation).Return(nil)

		handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, true, zerolog.Nop())
		_, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
		require.NoError(t, err)
	})

	t.Run("delete failure does not fail the job", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		e := newEngine(creditAccount("acc-1"))

		files, normalizer := expectStatement(ctrl, 1)
		files.EXPECT().Delete(gomock.Any(), statementLocation).Return(errors.New("permission denied"))

		handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, true, zerolog.Nop())
		result, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Progress.Imported)
	})

	t.Run("kept when every chunk failed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		e := newEngine(creditAccount("acc-1"))
		e.txManager.RunInTxFunc = func(ctx context.Context, fn func(tx usecase.Transaction) error) error {
			return errors.New("connection reset")
		}

		files, normalizer := expectStatement(ctrl, 1)

		handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, true, zerolog.Nop())
		result, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
		require.NoError(t, err)
		assert.True(t, result.Failed)
		assert.Equal(t, []string{"connection reset", "connection reset"}, result.ErrorSummary)
	})
}

func TestFileImportHandler_PartialFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	e := newEngine(creditAccount("acc-1"))

	calls := 0
	e.txManager.RunInTxFunc = func(ctx context.Context, fn func(tx usecase.Transaction) error) error {
		calls++
		if calls == 2 {
			return errors.New("deadlock detected")
		}
		return fn(&mocks.MockTransaction{})
	}

	files, normalizer := expectStatement(ctrl, 1)
	handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, false, zerolog.Nop())

	payload := &domain.FileImportPayload{
		StorageLocation: statementLocation,
		Format:          "csv",
		Options:         domain.ImportOptions{AccountID: ptr("acc-1")},
	}
	result, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
	require.NoError(t, err)

	assert.False(t, result.Failed)
	assert.Equal(t, 2, result.Progress.Imported)
	assert.Equal(t, 3, result.Progress.Processed)
	assert.Equal(t, []string{"deadlock detected"}, result.ErrorSummary)

	errs, err := e.jobs.ListErrors(ctx, "job-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].BatchNumber)
}

func TestFileImportHandler_SelectedIDs(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	e := newEngine(creditAccount("acc-1"))

	files, normalizer := expectStatement(ctrl, 1)
	handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, false, zerolog.Nop())

	payload := &domain.FileImportPayload{
		StorageLocation: statementLocation,
		Format:          "csv",
		Options: domain.ImportOptions{
			AccountID:   ptr("acc-1"),
			SelectedIDs: []string{"ext-2"},
		},
	}
	result, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Progress.Total)
	require.Len(t, e.lineItems.All(), 1)
	assert.Equal(t, "ext-2", *e.lineItems.All()[0].ExternalID)
}

func TestFileImportHandler_Rejects(t *testing.T) {
	ctx := context.Background()

	t.Run("unreadable source", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		e := newEngine(creditAccount("acc-1"))

		files := mocks.NewMockFileStore(ctrl)
		files.EXPECT().Open(gomock.Any(), statementLocation).Return(nil, errors.New("no such file"))
		normalizer := mocks.NewMockNormalizer(ctrl)

		payload := &domain.FileImportPayload{StorageLocation: statementLocation}
		handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, true, zerolog.Nop())

		_, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
		assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	})

	t.Run("malformed file", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		e := newEngine(creditAccount("acc-1"))

		files := mocks.NewMockFileStore(ctrl)
		files.EXPECT().Open(gomock.Any(), statementLocation).Return(io.NopCloser(strings.NewReader("garbage")), nil)
		normalizer := mocks.NewMockNormalizer(ctrl)
		normalizer.EXPECT().Normalize("", statementLocation, []byte("garbage")).Return(nil, errors.New("missing header"))

		payload := &domain.FileImportPayload{StorageLocation: statementLocation}
		handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, true, zerolog.Nop())

		_, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("unknown mapped category", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		e := newEngine(creditAccount("acc-1"))

		files, normalizer := expectStatement(ctrl, 1)
		payload := &domain.FileImportPayload{
			StorageLocation: statementLocation,
			Format:          "csv",
			Options: domain.ImportOptions{
				AccountID:        ptr("acc-1"),
				CategoryMappings: map[string]string{"Food": "cat-missing"},
			},
		}
		handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, true, zerolog.Nop())

		_, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
		assert.Empty(t, e.lineItems.All())
	})

	t.Run("account of another owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		foreign := creditAccount("acc-9")
		foreign.OwnerID = "owner-2"
		e := newEngine(foreign)

		files, normalizer := expectStatement(ctrl, 1)
		payload := &domain.FileImportPayload{
			StorageLocation: statementLocation,
			Format:          "csv",
			Options:         domain.ImportOptions{AccountID: ptr("acc-9")},
		}
		handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, true, zerolog.Nop())

		_, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
		assert.True(t, domain.IsNotFound(err))
		assert.Empty(t, e.lineItems.All())
		assert.Empty(t, e.periods.All())
	})

	t.Run("records without an account", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		e := newEngine(creditAccount("acc-1"))

		files, normalizer := expectStatement(ctrl, 1)
		payload := &domain.FileImportPayload{StorageLocation: statementLocation, Format: "csv"}
		handler := usecase.NewFileImportHandler(files, normalizer, e.categories, e.pipeline, e.idGen, true, zerolog.Nop())

		_, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFileImport, payload), payload)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestFeedImportHandler_Handle(t *testing.T) {
	ctx := context.Background()

	e := newEngine(checkingAccount("chk-1"))
	e.categories = mocks.NewMockCategoryRepository(&domain.Category{ID: "cat-food", OwnerID: testOwner, Name: "Food"})

	require.NoError(t, e.feeds.CreateLink(ctx, &domain.FeedLink{ID: "link-1", OwnerID: testOwner, AccountID: "chk-1", Provider: "pluggy"}))
	_, err := e.feeds.Stage(ctx, []*domain.FeedTransaction{
		{LinkID: "link-1", ProviderID: "p-1", PostedAt: date(2025, time.March, 1), Description: "Salary", Amount: 500000, Type: domain.TransactionIncome},
		{LinkID: "link-1", ProviderID: "p-2", PostedAt: date(2025, time.March, 2), Description: "Grocery", Amount: -12000, Type: domain.TransactionExpense},
		{LinkID: "link-1", ProviderID: "p-3", PostedAt: date(2025, time.March, 3), Description: "Cinema", Amount: -4000, Type: domain.TransactionExpense},
	})
	require.NoError(t, err)

	handler := usecase.NewFeedImportHandler(e.feeds, e.categories, e.pipeline, 1, zerolog.Nop())

	payload := &domain.FeedImportPayload{
		LinkID: "link-1",
		Transactions: []domain.FeedSelection{
			{ID: "p-1"},
			{ID: "p-2", CategoryID: ptr("cat-food")},
			{ID: "p-missing"},
		},
	}

	result, err := handler.Handle(ctx, e.newJob(t, "job-1", domain.JobTypeFeedImport, payload), payload)
	require.NoError(t, err)

	assert.Equal(t, domain.JobProgress{Processed: 2, Total: 2, Imported: 2}, result.Progress)
	assert.Equal(t, 3, e.feeds.ListStagedCalls)

	items := e.lineItems.All()
	require.Len(t, items, 2)
	assert.Equal(t, domain.SourceFeed, items[0].Source)
	assert.Equal(t, "p-1", *items[0].ExternalID)
	assert.Nil(t, items[0].CategoryID)
	assert.Equal(t, "cat-food", *items[1].CategoryID)
	assert.Equal(t, int64(488000), e.accounts.Account("chk-1").Balance)

	// a second import of the same selection is deduplicated
	result, err = handler.Handle(ctx, e.newJob(t, "job-2", domain.JobTypeFeedImport, payload), payload)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Progress.Skipped)
	assert.Zero(t, result.Progress.Imported)
	assert.Equal(t, int64(488000), e.accounts.Account("chk-1").Balance)
}

func TestFeedImportHandler_Rejects(t *testing.T) {
	ctx := context.Background()
	e := newEngine(checkingAccount("chk-1"))
	e.categories = mocks.NewMockCategoryRepository(&domain.Category{ID: "cat-other", OwnerID: "owner-2", Name: "Other"})

	require.NoError(t, e.feeds.CreateLink(ctx, &domain.FeedLink{ID: "link-1", OwnerID: testOwner, AccountID: "chk-1"}))
	require.NoError(t, e.feeds.CreateLink(ctx, &domain.FeedLink{ID: "link-2", OwnerID: "owner-2", AccountID: "chk-9"}))

	handler := usecase.NewFeedImportHandler(e.feeds, e.categories, e.pipeline, 0, zerolog.Nop())

	tests := []struct {
		name    string
		payload *domain.FeedImportPayload
		want    error
	}{
		{
			name:    "unknown link",
			payload: &domain.FeedImportPayload{LinkID: "link-x", Transactions: []domain.FeedSelection{{ID: "p-1"}}},
			want:    domain.ErrFeedLinkNotFound,
		},
		{
			name:    "link of another owner",
			payload: &domain.FeedImportPayload{LinkID: "link-2", Transactions: []domain.FeedSelection{{ID: "p-1"}}},
			want:    domain.ErrFeedLinkNotFound,
		},
		{
			name: "category of another owner",
			payload: &domain.FeedImportPayload{
				LinkID:       "link-1",
				Transactions: []domain.FeedSelection{{ID: "p-1", CategoryID: ptr("cat-other")}},
			},
			want: domain.ErrCategoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(ctx, e.newJob(t, "job-"+tt.name, domain.JobTypeFeedImport, tt.payload), tt.payload)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, e.feeds.ListStagedCalls)
}
