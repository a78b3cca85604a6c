package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/adapter/normalizer"
	postgresRepo "github.com/iho/cardledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cardledger/internal/adapter/repository/redis"
	"github.com/iho/cardledger/internal/adapter/storage"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/postgres"
	"github.com/iho/cardledger/internal/usecase"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and migrates it. The test is skipped
// when no database is configured.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.NewMigrator(dbURL, migrationsPath(t), zerolog.Nop()).Up(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	return &TestDB{Pool: pool, t: t}
}

// migrationsPath walks up from the working directory to the repository's
// migrations folder.
func migrationsPath(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("migrations directory not found")
		}
		dir = parent
	}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE job_errors, jobs, feed_transactions, feed_links,
			line_items, billing_periods, categories, accounts CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateCreditCard stores a revolving-credit account closing on day 10 and
// due on day 20.
func (db *TestDB) CreateCreditCard(ctx context.Context, ownerID string, limit int64) *domain.Account {
	db.t.Helper()

	now := time.Now().UTC()
	account := &domain.Account{
		ID:               postgresRepo.NewULIDGenerator().Generate(),
		OwnerID:          ownerID,
		Name:             "Test card",
		Kind:             domain.AccountKindCreditCard,
		Currency:         "BRL",
		CreditLimit:      limit,
		ClosingDay:       10,
		DueDay:           20,
		AvailableBalance: limit,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := postgresRepo.NewAccountRepository(db.Pool).Create(ctx, account); err != nil {
		db.t.Fatalf("failed to create test account: %v", err)
	}

	return account
}

// Engine is the service layer wired on the test database, with Redis
// replaced by an in-process server.
type Engine struct {
	Dispatcher *usecase.Dispatcher
	Jobs       *usecase.JobUseCase
	Accounts   *usecase.AccountUseCase
	Reconciler *usecase.ReconciliationUseCase
	Queue      *redisRepo.JobQueue
	// UploadRoot backs file:// storage locations.
	UploadRoot string
}

// NewEngine wires an Engine on db.
func NewEngine(t *testing.T, db *TestDB) *Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zerolog.Nop()
	pool := db.Pool
	uploadRoot := t.TempDir()

	txManager := postgresRepo.NewTxManager(pool, log)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	periodRepo := postgresRepo.NewBillingPeriodRepository(pool)
	lineItemRepo := postgresRepo.NewLineItemRepository(pool)
	categoryRepo := postgresRepo.NewCategoryRepository(pool)
	jobRepo := postgresRepo.NewJobRepository(pool)
	feedRepo := postgresRepo.NewFeedRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	queue := redisRepo.NewJobQueue(rdb, "test")
	cache := redisRepo.NewProgressCache(rdb, time.Minute)

	files := storage.NewRouter()
	files.Register("file", storage.NewLocalStore(uploadRoot))

	policy := domain.MinimumDuePolicy{Rate: decimal.RequireFromString("0.15"), Floor: 5000}
	recalc := usecase.NewRecalculator(accountRepo, periodRepo, lineItemRepo, policy)
	periods := usecase.NewPeriodService(periodRepo, idGen, nil, log)
	posting := usecase.NewPostingService(accountRepo, lineItemRepo, periods, recalc, idGen)
	payments := usecase.NewPaymentAllocator(periodRepo, lineItemRepo, recalc, nil, log)
	tracker := usecase.NewProgressTracker(jobRepo, cache, log)
	dedup := usecase.NewDedupFilter(lineItemRepo, 0, nil, log)
	pipeline := usecase.NewImportPipeline(txManager, accountRepo, dedup, posting, tracker, usecase.BatchConfig{Size: 2}, nil, log)

	manual := usecase.NewManualTransactionHandler(txManager, accountRepo, categoryRepo, posting, payments, tracker, nil, log)
	reassign := usecase.NewCategoryReassignHandler(txManager, categoryRepo, lineItemRepo, tracker)

	dispatcher := usecase.NewDispatcher(jobRepo, tracker, nil, log)
	dispatcher.Register(domain.JobTypeFileImport, usecase.NewFileImportHandler(files, normalizer.NewRegistry(), categoryRepo, pipeline, idGen, false, log))
	dispatcher.Register(domain.JobTypeFeedImport, usecase.NewFeedImportHandler(feedRepo, categoryRepo, pipeline, 0, log))
	dispatcher.Register(domain.JobTypeManualTransaction, manual)
	dispatcher.Register(domain.JobTypeCategoryReassign, reassign)
	dispatcher.Register(domain.JobTypeBotOperation, usecase.NewBotOperationHandler(manual, reassign))

	return &Engine{
		Dispatcher: dispatcher,
		Jobs:       usecase.NewJobUseCase(jobRepo, queue, cache, idGen, log),
		Accounts:   usecase.NewAccountUseCase(accountRepo, periodRepo, lineItemRepo, categoryRepo, idGen),
		Reconciler: usecase.NewReconciliationUseCase(txManager, accountRepo, periodRepo, lineItemRepo, recalc, log),
		Queue:      queue,
		UploadRoot: uploadRoot,
	}
}

// Upload writes content under the upload root and returns its location.
func (e *Engine) Upload(t *testing.T, name, content string) string {
	t.Helper()

	if err := os.WriteFile(filepath.Join(e.UploadRoot, name), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write upload: %v", err)
	}
	return "file:///" + name
}

// Run submits a job and dispatches it in the calling goroutine.
func (e *Engine) Run(ctx context.Context, t *testing.T, ownerID string, jobType domain.JobType, payload []byte) *domain.Job {
	t.Helper()

	job, err := e.Jobs.Submit(ctx, usecase.SubmitJobInput{OwnerID: ownerID, Type: jobType, Payload: payload})
	if err != nil {
		t.Fatalf("submit %s: %v", jobType, err)
	}

	if err := e.Dispatcher.Dispatch(ctx, job.ID); err != nil {
		t.Fatalf("dispatch %s: %v", job.ID, err)
	}

	finished, err := e.Jobs.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get %s: %v", job.ID, err)
	}
	return finished
}
