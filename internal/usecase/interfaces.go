package usecase

import (
	"context"
	"io"
	"time"

	"github.com/iho/cardledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
	// AdjustBalance atomically adds delta to the running balance of a
	// non-credit account.
	AdjustBalance(ctx context.Context, tx Transaction, id string, delta int64, updatedAt time.Time) error
	UpdateCreditBalances(ctx context.Context, tx Transaction, id string, used, available int64, updatedAt time.Time) error
}

// BillingPeriodRepository defines data access for billing periods.
type BillingPeriodRepository interface {
	// Create inserts a period and returns domain.ErrDuplicatePeriod when one
	// already exists for (account, reference period).
	Create(ctx context.Context, tx Transaction, period *domain.BillingPeriod) error
	GetByKey(ctx context.Context, tx Transaction, accountID string, referencePeriod time.Time) (*domain.BillingPeriod, error)
	GetByID(ctx context.Context, id string) (*domain.BillingPeriod, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.BillingPeriod, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BillingPeriod, error)
	// ListUnpaidForUpdate returns non-paid periods ordered by due date, then id.
	ListUnpaidForUpdate(ctx context.Context, tx Transaction, accountID string) ([]*domain.BillingPeriod, error)
	UpdateTotals(ctx context.Context, tx Transaction, period *domain.BillingPeriod) error
	UpdatePayment(ctx context.Context, tx Transaction, period *domain.BillingPeriod) error
	// SumOutstanding returns Σ(total - paid) over non-paid periods.
	SumOutstanding(ctx context.Context, tx Transaction, accountID string) (int64, error)
	MarkClosed(ctx context.Context, asOf time.Time) (int64, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// LineItemRepository defines data access for line items.
type LineItemRepository interface {
	// Create inserts a line item and reports false when the id already exists.
	Create(ctx context.Context, tx Transaction, item *domain.LineItem) (bool, error)
	// BulkCreate inserts items and returns how many were new.
	BulkCreate(ctx context.Context, tx Transaction, items []*domain.LineItem) (int, error)
	GetByID(ctx context.Context, id string) (*domain.LineItem, error)
	ListByPeriod(ctx context.Context, periodID string, limit, offset int) ([]*domain.LineItem, error)
	// SumForPeriod returns Σ amount over the period's non-payment items.
	SumForPeriod(ctx context.Context, tx Transaction, periodID string) (int64, error)
	FindExternalIDs(ctx context.Context, accountID string, externalIDs []string) ([]string, error)
	FindFingerprints(ctx context.Context, accountID string, dates []time.Time, descriptions []string) ([]domain.Fingerprint, error)
	ReassignCategory(ctx context.Context, tx Transaction, sourceID, targetID string) (int64, error)
}

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	// GetOrCreate returns the owner's category with this name, creating it
	// with id when missing.
	GetOrCreate(ctx context.Context, id, ownerID, name string) (*domain.Category, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Category, error)
}

// JobRepository defines data access for jobs and their error log.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	// Transition moves a job from one status to another and reports whether
	// the job was in the expected status.
	Transition(ctx context.Context, id string, from, to domain.JobStatus, at time.Time) (bool, error)
	UpdateProgress(ctx context.Context, id string, progress domain.JobProgress, at time.Time) error
	Finish(ctx context.Context, id string, status domain.JobStatus, progress domain.JobProgress, summary []string, at time.Time) error
	// AppendError logs a chunk failure once per (job, batch, message), so a
	// re-run of an interrupted job does not duplicate entries.
	AppendError(ctx context.Context, jobErr domain.JobError) error
	ListErrors(ctx context.Context, jobID string, limit, offset int) ([]*domain.JobError, error)
	ListByStatus(ctx context.Context, status domain.JobStatus, limit int) ([]*domain.Job, error)
}

// FeedRepository defines data access for staged open-banking data.
type FeedRepository interface {
	CreateLink(ctx context.Context, link *domain.FeedLink) error
	GetLink(ctx context.Context, id string) (*domain.FeedLink, error)
	Stage(ctx context.Context, txs []*domain.FeedTransaction) (int, error)
	ListStaged(ctx context.Context, linkID string, providerIDs []string) ([]*domain.FeedTransaction, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	// RunInTx runs fn in a transaction, committing on success. Transient
	// storage conflicts restart the whole transaction.
	RunInTx(ctx context.Context, fn func(tx Transaction) error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// FileStore reads and removes uploaded source files.
type FileStore interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Delete(ctx context.Context, location string) error
}

// Normalizer turns raw file content into import records.
type Normalizer interface {
	Normalize(format, name string, data []byte) ([]domain.ImportRecord, error)
}

// JobQueue hands job ids to the worker.
type JobQueue interface {
	Enqueue(ctx context.Context, jobID string) error
}

// ProgressSnapshot is the cached view of a running job.
type ProgressSnapshot struct {
	JobID     string             `json:"job_id"`
	Status    domain.JobStatus   `json:"status"`
	Progress  domain.JobProgress `json:"progress"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ProgressCache publishes job progress for cheap polling.
type ProgressCache interface {
	Put(ctx context.Context, snapshot ProgressSnapshot) error
	// Get returns nil without error when nothing is cached.
	Get(ctx context.Context, jobID string) (*ProgressSnapshot, error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so a failed request can be retried.
	Release(ctx context.Context, key string) error
}

// JobHandler executes one job type.
type JobHandler interface {
	Handle(ctx context.Context, job *domain.Job, payload domain.Payload) (*domain.JobResult, error)
}

// MetricsRecorder receives engine-level measurements.
type MetricsRecorder interface {
	JobFinished(jobType domain.JobType, status domain.JobStatus, elapsed time.Duration)
	LineItemsImported(source domain.Source, n int)
	DuplicatesSkipped(tier string, n int)
	BatchFailed(jobType domain.JobType)
	PeriodCreated()
	PaymentApplied(applied, unapplied int64)
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) JobFinished(domain.JobType, domain.JobStatus, time.Duration) {}
func (NopMetrics) LineItemsImported(domain.Source, int)                         {}
func (NopMetrics) DuplicatesSkipped(string, int)                                {}
func (NopMetrics) BatchFailed(domain.JobType)                                   {}
func (NopMetrics) PeriodCreated()                                               {}
func (NopMetrics) PaymentApplied(int64, int64)                                  {}

