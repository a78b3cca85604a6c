package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/usecase/mocks"
)

const testOwner = "owner-1"

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func creditAccount(id string) *domain.Account {
	return &domain.Account{
		ID:               id,
		OwnerID:          testOwner,
		Name:             "Card " + id,
		Kind:             domain.AccountKindCreditCard,
		Currency:         "BRL",
		CreditLimit:      100000,
		ClosingDay:       10,
		DueDay:           20,
		AvailableBalance: 100000,
	}
}

func checkingAccount(id string) *domain.Account {
	return &domain.Account{
		ID:       id,
		OwnerID:  testOwner,
		Name:     "Checking " + id,
		Kind:     domain.AccountKindChecking,
		Currency: "BRL",
	}
}

// engine wires every use case on top of the in-memory mocks.
type engine struct {
	accounts   *mocks.MockAccountRepository
	periods    *mocks.MockBillingPeriodRepository
	lineItems  *mocks.MockLineItemRepository
	categories *mocks.MockCategoryRepository
	jobs       *mocks.MockJobRepository
	feeds      *mocks.MockFeedRepository
	txManager  *mocks.MockTransactionManager
	idGen      *mocks.MockIDGenerator

	periodService *usecase.PeriodService
	recalc        *usecase.Recalculator
	posting       *usecase.PostingService
	payments      *usecase.PaymentAllocator
	dedup         *usecase.DedupFilter
	tracker       *usecase.ProgressTracker
	pipeline      *usecase.ImportPipeline
}

func newEngine(accounts ...*domain.Account) *engine {
	log := zerolog.Nop()

	e := &engine{
		accounts:   mocks.NewMockAccountRepository(accounts...),
		periods:    mocks.NewMockBillingPeriodRepository(),
		lineItems:  mocks.NewMockLineItemRepository(),
		categories: mocks.NewMockCategoryRepository(),
		jobs:       mocks.NewMockJobRepository(),
		feeds:      mocks.NewMockFeedRepository(),
		txManager:  mocks.NewMockTransactionManager(),
		idGen:      mocks.NewMockIDGenerator(),
	}

	e.periodService = usecase.NewPeriodService(e.periods, e.idGen, nil, log)
	e.recalc = usecase.NewRecalculator(e.accounts, e.periods, e.lineItems, domain.DefaultMinimumDuePolicy())
	e.posting = usecase.NewPostingService(e.accounts, e.lineItems, e.periodService, e.recalc, e.idGen)
	e.payments = usecase.NewPaymentAllocator(e.periods, e.lineItems, e.recalc, nil, log)
	e.dedup = usecase.NewDedupFilter(e.lineItems, 2, nil, log)
	e.tracker = usecase.NewProgressTracker(e.jobs, nil, log)
	e.pipeline = usecase.NewImportPipeline(
		e.txManager,
		e.accounts,
		e.dedup,
		e.posting,
		e.tracker,
		usecase.BatchConfig{Size: 2},
		nil,
		log,
	)

	return e
}

// newJob stores a processing job carrying payload.
func (e *engine) newJob(t *testing.T, id string, jobType domain.JobType, payload any) *domain.Job {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	job := &domain.Job{
		ID:      id,
		OwnerID: testOwner,
		Type:    jobType,
		Payload: raw,
		Status:  domain.JobStatusProcessing,
	}
	require.NoError(t, e.jobs.Create(context.Background(), job))

	return job
}

func (e *engine) openPeriod(id, accountID string, ref time.Time, total int64) *domain.BillingPeriod {
	dates := domain.ResolvePeriod(ref, 10, 20)
	p := domain.NewBillingPeriod(id, accountID, dates, time.Now().UTC())
	p.TotalAmount = total
	e.periods.Insert(p)
	return p
}
