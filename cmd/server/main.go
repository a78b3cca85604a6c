package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/cardledger/internal/adapter/http"
	"github.com/iho/cardledger/internal/adapter/http/handler"
	"github.com/iho/cardledger/internal/adapter/http/middleware"
	"github.com/iho/cardledger/internal/adapter/normalizer"
	postgresRepo "github.com/iho/cardledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cardledger/internal/adapter/repository/redis"
	"github.com/iho/cardledger/internal/adapter/storage"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/infrastructure/config"
	"github.com/iho/cardledger/internal/infrastructure/logger"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
	"github.com/iho/cardledger/internal/infrastructure/postgres"
	"github.com/iho/cardledger/internal/infrastructure/redis"
	"github.com/iho/cardledger/internal/infrastructure/worker"
	"github.com/iho/cardledger/internal/usecase"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "cardledger"})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log).Up(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, redis.WithDialTimeout(5*time.Second))
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("set up file storage: %w", err)
	}

	jwtManager, err := newJWTManager(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := newApp(cfg, pool, redisClient, files, reg, log)

	rateLimiter := newRateLimiter(cfg)
	if rateLimiter != nil {
		go rateLimiter.RunCleanup(ctx, time.Minute)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(app.accounts, app.reconciler),
		JobHandler:         handler.NewJobHandler(app.jobs),
		FeedHandler:        handler.NewFeedHandler(app.feeds),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		AuthHandler:        handler.NewAuthHandler(),
		IdempotencyStore:   redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:     cfg.IdempotencyTTL,
		JWTManager:         jwtManager,
		RateLimiter:        rateLimiter,
		Registry:           reg,
		Gatherer:           reg,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	workerDone := make(chan struct{})
	if cfg.WorkerEnabled {
		go func() {
			defer close(workerDone)
			if err := app.worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("worker stopped unexpectedly")
			}
		}()
	} else {
		close(workerDone)
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return err
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("worker did not finish before the shutdown deadline")
	}

	log.Info().Msg("server stopped")
	return nil
}

// app is the wired service layer shared by the HTTP surface and the worker.
type app struct {
	accounts   *usecase.AccountUseCase
	reconciler *usecase.ReconciliationUseCase
	jobs       *usecase.JobUseCase
	feeds      *usecase.FeedUseCase
	worker     *worker.Worker
}

func newApp(
	cfg *config.Config,
	pool *pgxpool.Pool,
	redisClient *goredis.Client,
	files usecase.FileStore,
	reg prometheus.Registerer,
	log zerolog.Logger,
) *app {
	m := metrics.New(reg)

	txManager := postgresRepo.NewTxManager(pool, log)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	periodRepo := postgresRepo.NewBillingPeriodRepository(pool)
	lineItemRepo := postgresRepo.NewLineItemRepository(pool)
	categoryRepo := postgresRepo.NewCategoryRepository(pool)
	jobRepo := postgresRepo.NewJobRepository(pool)
	feedRepo := postgresRepo.NewFeedRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	queue := redisRepo.NewJobQueue(redisClient, cfg.WorkerQueue)
	progressCache := redisRepo.NewProgressCache(redisClient, cfg.ProgressTTL)

	policy := domain.MinimumDuePolicy{Rate: cfg.MinimumDueRate, Floor: cfg.MinimumDueFloor}
	recalc := usecase.NewRecalculator(accountRepo, periodRepo, lineItemRepo, policy)
	periods := usecase.NewPeriodService(periodRepo, idGen, m, log)
	posting := usecase.NewPostingService(accountRepo, lineItemRepo, periods, recalc, idGen)
	payments := usecase.NewPaymentAllocator(periodRepo, lineItemRepo, recalc, m, log)
	tracker := usecase.NewProgressTracker(jobRepo, progressCache, log)
	dedup := usecase.NewDedupFilter(lineItemRepo, cfg.DedupChunkSize, m, log)

	pipeline := usecase.NewImportPipeline(txManager, accountRepo, dedup, posting, tracker, usecase.BatchConfig{
		Size:         cfg.ImportBatchSize,
		Delay:        cfg.ImportBatchDelay,
		SummaryLimit: cfg.ErrorSummaryLimit,
	}, m, log)

	manual := usecase.NewManualTransactionHandler(txManager, accountRepo, categoryRepo, posting, payments, tracker, m, log)
	reassign := usecase.NewCategoryReassignHandler(txManager, categoryRepo, lineItemRepo, tracker)

	dispatcher := usecase.NewDispatcher(jobRepo, tracker, m, logger.WithComponent(log, "dispatcher"))
	dispatcher.Register(domain.JobTypeFileImport, usecase.NewFileImportHandler(
		files, normalizer.NewRegistry(), categoryRepo, pipeline, idGen, cfg.DeleteAfterImport, log,
	))
	dispatcher.Register(domain.JobTypeFeedImport, usecase.NewFeedImportHandler(feedRepo, categoryRepo, pipeline, cfg.DedupChunkSize, log))
	dispatcher.Register(domain.JobTypeManualTransaction, manual)
	dispatcher.Register(domain.JobTypeCategoryReassign, reassign)
	dispatcher.Register(domain.JobTypeBotOperation, usecase.NewBotOperationHandler(manual, reassign))

	jobs := usecase.NewJobUseCase(jobRepo, queue, progressCache, idGen, log)

	return &app{
		accounts:   usecase.NewAccountUseCase(accountRepo, periodRepo, lineItemRepo, categoryRepo, idGen),
		reconciler: usecase.NewReconciliationUseCase(txManager, accountRepo, periodRepo, lineItemRepo, recalc, log),
		jobs:       jobs,
		feeds:      usecase.NewFeedUseCase(feedRepo, accountRepo, idGen),
		worker: worker.New(worker.Config{
			Queue:         queue,
			Dispatcher:    dispatcher,
			Requeuer:      jobs,
			Sweeper:       usecase.NewPeriodSweeper(periodRepo, log),
			Gauge:         m,
			Logger:        logger.WithComponent(log, "worker"),
			Concurrency:   cfg.WorkerConcurrency,
			PollTimeout:   cfg.WorkerPollTimeout,
			SweepInterval: cfg.WorkerSweepInterval,
		}),
	}
}

// newFileStore serves file:// locations from the local upload root, and
// gs:// locations when GCS credentials are configured.
func newFileStore(ctx context.Context, cfg *config.Config) (*storage.Router, error) {
	router := storage.NewRouter()
	router.Register("file", storage.NewLocalStore(cfg.LocalStorageRoot))

	if cfg.GCSCredentialsFile != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, err
		}
		router.Register("gs", gcs)
	}

	return router, nil
}

func newJWTManager(cfg *config.Config) (*auth.JWTManager, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_ENABLED requires JWT_SECRET")
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), nil
}

func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	return middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}
