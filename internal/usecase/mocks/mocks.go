package mocks

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc               func(ctx context.Context, account *domain.Account) error
	GetByIDFunc              func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc     func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	ListByOwnerFunc          func(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
	AdjustBalanceFunc        func(ctx context.Context, tx usecase.Transaction, id string, delta int64, updatedAt time.Time) error
	UpdateCreditBalancesFunc func(ctx context.Context, tx usecase.Transaction, id string, used, available int64, updatedAt time.Time) error
}

func NewMockAccountRepository(accounts ...*domain.Account) *MockAccountRepository {
	m := &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		c := *acc
		return &c, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return page(accounts, limit, offset), nil
}

func (m *MockAccountRepository) AdjustBalance(ctx context.Context, tx usecase.Transaction, id string, delta int64, updatedAt time.Time) error {
	if m.AdjustBalanceFunc != nil {
		return m.AdjustBalanceFunc(ctx, tx, id, delta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Balance += delta
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) UpdateCreditBalances(ctx context.Context, tx usecase.Transaction, id string, used, available int64, updatedAt time.Time) error {
	if m.UpdateCreditBalancesFunc != nil {
		return m.UpdateCreditBalancesFunc(ctx, tx, id, used, available, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.UsedBalance = used
	acc.AvailableBalance = available
	acc.UpdatedAt = updatedAt
	return nil
}

// Account returns the stored account, bypassing the copy made by GetByID.
func (m *MockAccountRepository) Account(id string) *domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[id]
}

// MockBillingPeriodRepository is a mock implementation of BillingPeriodRepository.
type MockBillingPeriodRepository struct {
	mu      sync.RWMutex
	periods map[string]*domain.BillingPeriod

	CreateFunc   func(ctx context.Context, tx usecase.Transaction, period *domain.BillingPeriod) error
	GetByKeyFunc func(ctx context.Context, tx usecase.Transaction, accountID string, referencePeriod time.Time) (*domain.BillingPeriod, error)
	GetByIDFunc  func(ctx context.Context, id string) (*domain.BillingPeriod, error)
	// BeforeCreate runs before the default Create logic; tests use it to
	// simulate a concurrent writer.
	BeforeCreate func(period *domain.BillingPeriod)

	CreateCalls int
}

func NewMockBillingPeriodRepository(periods ...*domain.BillingPeriod) *MockBillingPeriodRepository {
	m := &MockBillingPeriodRepository{
		periods: make(map[string]*domain.BillingPeriod),
	}
	for _, p := range periods {
		m.periods[p.ID] = p
	}
	return m
}

func (m *MockBillingPeriodRepository) Create(ctx context.Context, tx usecase.Transaction, period *domain.BillingPeriod) error {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, period)
	}
	if m.BeforeCreate != nil {
		m.BeforeCreate(period)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.periods {
		if p.AccountID == period.AccountID && p.ReferencePeriod.Equal(period.ReferencePeriod) {
			return domain.ErrDuplicatePeriod
		}
	}
	m.periods[period.ID] = period
	return nil
}

// Insert stores a period directly.
func (m *MockBillingPeriodRepository) Insert(period *domain.BillingPeriod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[period.ID] = period
}

// Period returns the stored period.
func (m *MockBillingPeriodRepository) Period(id string) *domain.BillingPeriod {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.periods[id]
}

// All returns every stored period ordered by reference period.
func (m *MockBillingPeriodRepository) All() []*domain.BillingPeriod {
	m.mu.RLock()
	defer m.mu.RUnlock()
	periods := make([]*domain.BillingPeriod, 0, len(m.periods))
	for _, p := range m.periods {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].ReferencePeriod.Before(periods[j].ReferencePeriod) })
	return periods
}

func (m *MockBillingPeriodRepository) GetByKey(ctx context.Context, tx usecase.Transaction, accountID string, referencePeriod time.Time) (*domain.BillingPeriod, error) {
	if m.GetByKeyFunc != nil {
		return m.GetByKeyFunc(ctx, tx, accountID, referencePeriod)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.periods {
		if p.AccountID == accountID && p.ReferencePeriod.Equal(referencePeriod) {
			c := *p
			return &c, nil
		}
	}
	return nil, domain.ErrPeriodNotFound
}

func (m *MockBillingPeriodRepository) GetByID(ctx context.Context, id string) (*domain.BillingPeriod, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.periods[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, domain.ErrPeriodNotFound
}

func (m *MockBillingPeriodRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.BillingPeriod, error) {
	return m.GetByID(ctx, id)
}

func (m *MockBillingPeriodRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BillingPeriod, error) {
	var periods []*domain.BillingPeriod
	for _, p := range m.All() {
		if p.AccountID == accountID {
			c := *p
			periods = append(periods, &c)
		}
	}
	slices.Reverse(periods)
	return page(periods, limit, offset), nil
}

func (m *MockBillingPeriodRepository) ListUnpaidForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.BillingPeriod, error) {
	var periods []*domain.BillingPeriod
	for _, p := range m.All() {
		if p.AccountID == accountID && p.Status != domain.PeriodStatusPaid {
			c := *p
			periods = append(periods, &c)
		}
	}
	sort.SliceStable(periods, func(i, j int) bool {
		if periods[i].DueDate.Equal(periods[j].DueDate) {
			return periods[i].ID < periods[j].ID
		}
		return periods[i].DueDate.Before(periods[j].DueDate)
	})
	return periods, nil
}

func (m *MockBillingPeriodRepository) UpdateTotals(ctx context.Context, tx usecase.Transaction, period *domain.BillingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[period.ID]
	if !ok {
		return domain.ErrPeriodNotFound
	}
	p.TotalAmount = period.TotalAmount
	p.MinimumDue = period.MinimumDue
	p.Status = period.Status
	p.UpdatedAt = period.UpdatedAt
	return nil
}

func (m *MockBillingPeriodRepository) UpdatePayment(ctx context.Context, tx usecase.Transaction, period *domain.BillingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[period.ID]
	if !ok {
		return domain.ErrPeriodNotFound
	}
	p.PaidAmount = period.PaidAmount
	p.Status = period.Status
	p.LastPaymentDate = period.LastPaymentDate
	p.UpdatedAt = period.UpdatedAt
	return nil
}

func (m *MockBillingPeriodRepository) SumOutstanding(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	var sum int64
	for _, p := range m.All() {
		if p.AccountID == accountID && p.Status != domain.PeriodStatusPaid {
			sum += p.Outstanding()
		}
	}
	return sum, nil
}

func (m *MockBillingPeriodRepository) MarkClosed(ctx context.Context, asOf time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.periods {
		if p.Status == domain.PeriodStatusOpen && p.ClosingDate.Before(asOf) {
			p.Status = domain.PeriodStatusClosed
			n++
		}
	}
	return n, nil
}

func (m *MockBillingPeriodRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.periods {
		switch p.Status {
		case domain.PeriodStatusOpen, domain.PeriodStatusClosed, domain.PeriodStatusPartial:
			if p.DueDate.Before(asOf) && p.PaidAmount < p.TotalAmount {
				p.Status = domain.PeriodStatusOverdue
				n++
			}
		}
	}
	return n, nil
}

// MockLineItemRepository is a mock implementation of LineItemRepository.
type MockLineItemRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.LineItem
	order []string

	BulkCreateFunc       func(ctx context.Context, tx usecase.Transaction, items []*domain.LineItem) (int, error)
	FindExternalIDsFunc  func(ctx context.Context, accountID string, externalIDs []string) ([]string, error)
	FindFingerprintsFunc func(ctx context.Context, accountID string, dates []time.Time, descriptions []string) ([]domain.Fingerprint, error)

	FindExternalIDsCalls  int
	FindFingerprintsCalls int
}

func NewMockLineItemRepository(items ...*domain.LineItem) *MockLineItemRepository {
	m := &MockLineItemRepository{
		items: make(map[string]*domain.LineItem),
	}
	for _, item := range items {
		m.items[item.ID] = item
		m.order = append(m.order, item.ID)
	}
	return m
}

func (m *MockLineItemRepository) Create(ctx context.Context, tx usecase.Transaction, item *domain.LineItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; ok {
		return false, nil
	}
	m.items[item.ID] = item
	m.order = append(m.order, item.ID)
	return true, nil
}

func (m *MockLineItemRepository) BulkCreate(ctx context.Context, tx usecase.Transaction, items []*domain.LineItem) (int, error) {
	if m.BulkCreateFunc != nil {
		return m.BulkCreateFunc(ctx, tx, items)
	}
	n := 0
	for _, item := range items {
		inserted, err := m.Create(ctx, tx, item)
		if err != nil {
			return n, err
		}
		if inserted {
			n++
		}
	}
	return n, nil
}

func (m *MockLineItemRepository) GetByID(ctx context.Context, id string) (*domain.LineItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if item, ok := m.items[id]; ok {
		return item, nil
	}
	return nil, domain.ErrLineItemNotFound
}

// All returns every stored item in insertion order.
func (m *MockLineItemRepository) All() []*domain.LineItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]*domain.LineItem, 0, len(m.order))
	for _, id := range m.order {
		items = append(items, m.items[id])
	}
	return items
}

func (m *MockLineItemRepository) ListByPeriod(ctx context.Context, periodID string, limit, offset int) ([]*domain.LineItem, error) {
	var items []*domain.LineItem
	for _, item := range m.All() {
		if item.PeriodID != nil && *item.PeriodID == periodID {
			items = append(items, item)
		}
	}
	return page(items, limit, offset), nil
}

func (m *MockLineItemRepository) SumForPeriod(ctx context.Context, tx usecase.Transaction, periodID string) (int64, error) {
	var sum int64
	for _, item := range m.All() {
		if item.PeriodID != nil && *item.PeriodID == periodID && item.Type != domain.TransactionPayment {
			sum += item.Amount
		}
	}
	return sum, nil
}

func (m *MockLineItemRepository) FindExternalIDs(ctx context.Context, accountID string, externalIDs []string) ([]string, error) {
	m.mu.Lock()
	m.FindExternalIDsCalls++
	m.mu.Unlock()

	if m.FindExternalIDsFunc != nil {
		return m.FindExternalIDsFunc(ctx, accountID, externalIDs)
	}

	want := make(map[string]struct{}, len(externalIDs))
	for _, id := range externalIDs {
		want[id] = struct{}{}
	}

	var found []string
	for _, item := range m.All() {
		if item.AccountID != accountID || item.ExternalID == nil {
			continue
		}
		if _, ok := want[*item.ExternalID]; ok {
			found = append(found, *item.ExternalID)
		}
	}
	return found, nil
}

func (m *MockLineItemRepository) FindFingerprints(ctx context.Context, accountID string, dates []time.Time, descriptions []string) ([]domain.Fingerprint, error) {
	m.mu.Lock()
	m.FindFingerprintsCalls++
	m.mu.Unlock()

	if m.FindFingerprintsFunc != nil {
		return m.FindFingerprintsFunc(ctx, accountID, dates, descriptions)
	}

	var found []domain.Fingerprint
	for _, item := range m.All() {
		if item.AccountID != accountID {
			continue
		}
		fp := item.Fingerprint()
		if slices.ContainsFunc(dates, fp.Date.Equal) && slices.Contains(descriptions, fp.Description) {
			found = append(found, fp)
		}
	}
	return found, nil
}

func (m *MockLineItemRepository) ReassignCategory(ctx context.Context, tx usecase.Transaction, sourceID, targetID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.CategoryID != nil && *item.CategoryID == sourceID {
			target := targetID
			item.CategoryID = &target
			n++
		}
	}
	return n, nil
}

// MockCategoryRepository is a mock implementation of CategoryRepository.
type MockCategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]*domain.Category

	GetOrCreateFunc func(ctx context.Context, id, ownerID, name string) (*domain.Category, error)
}

func NewMockCategoryRepository(categories ...*domain.Category) *MockCategoryRepository {
	m := &MockCategoryRepository{
		categories: make(map[string]*domain.Category),
	}
	for _, c := range categories {
		m.categories[c.ID] = c
	}
	return m
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) GetOrCreate(ctx context.Context, id, ownerID, name string) (*domain.Category, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, id, ownerID, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.OwnerID == ownerID && c.Name == name {
			return c, nil
		}
	}
	c := &domain.Category{ID: id, OwnerID: ownerID, Name: name, CreatedAt: time.Now().UTC()}
	m.categories[id] = c
	return c, nil
}

func (m *MockCategoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var categories []*domain.Category
	for _, c := range m.categories {
		if c.OwnerID == ownerID {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// MockJobRepository is a mock implementation of JobRepository.
type MockJobRepository struct {
	mu     sync.RWMutex
	jobs   map[string]*domain.Job
	errors []*domain.JobError

	CreateFunc         func(ctx context.Context, job *domain.Job) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Job, error)
	UpdateProgressFunc func(ctx context.Context, id string, progress domain.JobProgress, at time.Time) error
	FinishFunc         func(ctx context.Context, id string, status domain.JobStatus, progress domain.JobProgress, summary []string, at time.Time) error

	ProgressUpdates []domain.JobProgress
}

func NewMockJobRepository(jobs ...*domain.Job) *MockJobRepository {
	m := &MockJobRepository{
		jobs: make(map[string]*domain.Job),
	}
	for _, j := range jobs {
		m.jobs[j.ID] = j
	}
	return m
}

func (m *MockJobRepository) Create(ctx context.Context, job *domain.Job) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *job
	m.jobs[job.ID] = &c
	return nil
}

func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if j, ok := m.jobs[id]; ok {
		c := *j
		return &c, nil
	}
	return nil, domain.ErrJobNotFound
}

// Job returns the stored job.
func (m *MockJobRepository) Job(id string) *domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

func (m *MockJobRepository) Transition(ctx context.Context, id string, from, to domain.JobStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.Status != from {
		return false, nil
	}
	j.Status = to
	j.UpdatedAt = at
	if to == domain.JobStatusProcessing {
		j.StartedAt = &at
	}
	return true, nil
}

func (m *MockJobRepository) UpdateProgress(ctx context.Context, id string, progress domain.JobProgress, at time.Time) error {
	if m.UpdateProgressFunc != nil {
		return m.UpdateProgressFunc(ctx, id, progress, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.Progress = progress
	j.UpdatedAt = at
	m.ProgressUpdates = append(m.ProgressUpdates, progress)
	return nil
}

func (m *MockJobRepository) Finish(ctx context.Context, id string, status domain.JobStatus, progress domain.JobProgress, summary []string, at time.Time) error {
	if m.FinishFunc != nil {
		return m.FinishFunc(ctx, id, status, progress, summary, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.Status = status
	j.Progress = progress
	j.ErrorSummary = summary
	j.UpdatedAt = at
	j.FinishedAt = &at
	return nil
}

func (m *MockJobRepository) AppendError(ctx context.Context, jobErr domain.JobError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.errors {
		if e.JobID == jobErr.JobID && e.BatchNumber == jobErr.BatchNumber && e.Message == jobErr.Message {
			return nil
		}
	}
	e := jobErr
	m.errors = append(m.errors, &e)
	return nil
}

func (m *MockJobRepository) ListErrors(ctx context.Context, jobID string, limit, offset int) ([]*domain.JobError, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var errs []*domain.JobError
	for _, e := range m.errors {
		if e.JobID == jobID {
			errs = append(errs, e)
		}
	}
	return page(errs, limit, offset), nil
}

func (m *MockJobRepository) ListByStatus(ctx context.Context, status domain.JobStatus, limit int) ([]*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var jobs []*domain.Job
	for _, j := range m.jobs {
		if j.Status == status {
			jobs = append(jobs, j)
		}
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })
	return page(jobs, limit, 0), nil
}

// MockFeedRepository is a mock implementation of FeedRepository.
type MockFeedRepository struct {
	mu     sync.RWMutex
	links  map[string]*domain.FeedLink
	staged map[string]*domain.FeedTransaction

	ListStagedCalls int
}

func NewMockFeedRepository() *MockFeedRepository {
	return &MockFeedRepository{
		links:  make(map[string]*domain.FeedLink),
		staged: make(map[string]*domain.FeedTransaction),
	}
}

func (m *MockFeedRepository) CreateLink(ctx context.Context, link *domain.FeedLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[link.ID] = link
	return nil
}

func (m *MockFeedRepository) GetLink(ctx context.Context, id string) (*domain.FeedLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.links[id]; ok {
		return l, nil
	}
	return nil, domain.ErrFeedLinkNotFound
}

func (m *MockFeedRepository) Stage(ctx context.Context, txs []*domain.FeedTransaction) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tx := range txs {
		key := tx.LinkID + "|" + tx.ProviderID
		if _, ok := m.staged[key]; ok {
			continue
		}
		m.staged[key] = tx
		n++
	}
	return n, nil
}

func (m *MockFeedRepository) ListStaged(ctx context.Context, linkID string, providerIDs []string) ([]*domain.FeedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListStagedCalls++
	var txs []*domain.FeedTransaction
	for _, id := range providerIDs {
		if tx, ok := m.staged[linkID+"|"+id]; ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc   func(ctx context.Context) (usecase.Transaction, error)
	RunInTxFunc func(ctx context.Context, fn func(tx usecase.Transaction) error) error

	RunInTxCalls int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

func (m *MockTransactionManager) RunInTx(ctx context.Context, fn func(tx usecase.Transaction) error) error {
	m.RunInTxCalls++
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(&MockTransaction{})
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
