package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	postgresRepo "github.com/iho/cardledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cardledger/internal/adapter/repository/redis"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/infrastructure/config"
	"github.com/iho/cardledger/internal/infrastructure/logger"
	"github.com/iho/cardledger/internal/infrastructure/postgres"
	"github.com/iho/cardledger/internal/infrastructure/redis"
	"github.com/iho/cardledger/internal/usecase"
)

// options are the persistent flags shared by the API commands.
type options struct {
	baseURL string
	timeout time.Duration
	token   string
	ownerID string
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "cardledger-cli",
		Short:         "CardLedger CLI tool",
		Long:          `A command line interface for operating CardLedger: migrations, jobs, billing periods and tokens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the CardLedger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("CARDLEDGER_TOKEN"), "Bearer token for the API")
	rootCmd.PersistentFlags().StringVar(&opts.ownerID, "owner", os.Getenv("CARDLEDGER_OWNER"), "Owner id sent when authentication is disabled")

	rootCmd.AddCommand(
		newMigrateCmd(),
		newJobsCmd(opts),
		newPeriodsCmd(opts),
		newTokenCmd(),
	)

	return rootCmd
}

// Migrations

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newMigrator()
				if err != nil {
					return err
				}
				return m.Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newMigrator()
				if err != nil {
					return err
				}
				return m.Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newMigrator()
				if err != nil {
					return err
				}
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d\ndirty: %v\n", version, dirty)
				return nil
			},
		},
	)

	return migrateCmd
}

func newMigrator() (*postgres.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, cliLogger(cfg)), nil
}

// Jobs

func newJobsCmd(opts *options) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Submit and inspect background jobs",
	}

	var idempotencyKey string
	submitCmd := &cobra.Command{
		Use:   "submit <type> [payload-file]",
		Short: "Submit a job; the payload is read from the file or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}

			headers := map[string]string{}
			if idempotencyKey != "" {
				headers["Idempotency-Key"] = idempotencyKey
			}

			body, err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/jobs/"+args[0], payload, headers, http.StatusAccepted)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}
	submitCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")

	statusCmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job with its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/jobs/"+args[0], nil, nil, http.StatusOK)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	errorsCmd := &cobra.Command{
		Use:   "errors <job-id>",
		Short: "List the errors a job recorded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/jobs/"+args[0]+"/errors", nil, nil, http.StatusOK)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a job that has not started",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/jobs/"+args[0]+"/cancel", nil, nil, http.StatusOK)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	var (
		requeueStatus string
		requeueLimit  int
	)
	requeueCmd := &cobra.Command{
		Use:   "requeue",
		Short: "Queue stored jobs of a status again",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := domain.JobStatus(requeueStatus)
			if status != domain.JobStatusPending && status != domain.JobStatusProcessing {
				return fmt.Errorf("can only requeue pending or processing jobs, got %q", requeueStatus)
			}
			return withBackend(cmd.Context(), func(b *backend) error {
				jobs := usecase.NewJobUseCase(
					postgresRepo.NewJobRepository(b.pool),
					redisRepo.NewJobQueue(b.redis, b.cfg.WorkerQueue),
					redisRepo.NewProgressCache(b.redis, b.cfg.ProgressTTL),
					postgresRepo.NewULIDGenerator(),
					b.log,
				)
				n, err := jobs.Requeue(cmd.Context(), status, requeueLimit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requeued %d job(s)\n", n)
				return nil
			})
		},
	}
	requeueCmd.Flags().StringVar(&requeueStatus, "status", string(domain.JobStatusPending), "Status of the jobs to requeue")
	requeueCmd.Flags().IntVar(&requeueLimit, "limit", 1000, "Maximum number of jobs to requeue")

	jobsCmd.AddCommand(submitCmd, statusCmd, errorsCmd, cancelCmd, requeueCmd)
	return jobsCmd
}

func readPayload(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

// Billing periods

func newPeriodsCmd(opts *options) *cobra.Command {
	periodsCmd := &cobra.Command{
		Use:   "periods",
		Short: "Billing period maintenance",
	}

	var asOf string
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Close and mark overdue billing periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if asOf != "" {
				parsed, err := domain.ParseDate(asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				day = parsed
			}

			return withBackend(cmd.Context(), func(b *backend) error {
				sweeper := usecase.NewPeriodSweeper(postgresRepo.NewBillingPeriodRepository(b.pool), b.log)
				result, err := sweeper.Sweep(cmd.Context(), day)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "closed: %d\noverdue: %d\n", result.Closed, result.Overdue)
				return nil
			})
		},
	}
	sweepCmd.Flags().StringVar(&asOf, "as-of", "", "Sweep as of this day (YYYY-MM-DD), default today")

	var repair bool
	reconcileCmd := &cobra.Command{
		Use:   "reconcile <account-id>",
		Short: "Check an account's balances against its line items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := json.Marshal(map[string]bool{"repair": repair})
			if err != nil {
				return err
			}

			body, err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/accounts/"+args[0]+"/reconcile", payload, nil, http.StatusOK)
			if err != nil {
				return err
			}

			var result struct {
				Reconciled bool `json:"reconciled"`
				Repaired   bool `json:"repaired"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if err := printJSON(out, body); err != nil {
				return err
			}
			if !result.Reconciled && !result.Repaired {
				return errors.New("reconciliation FAILED: balances do not match line items")
			}
			fmt.Fprintln(out, "reconciliation PASSED")
			return nil
		},
	}
	reconcileCmd.Flags().BoolVar(&repair, "repair", false, "Rewrite stored totals from line items")

	periodsCmd.AddCommand(sweepCmd, reconcileCmd)
	return periodsCmd
}

// Tokens

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "API token management",
	}

	var (
		ownerID string
		email   string
		role    string
		ttl     time.Duration
	)
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed API token for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if ttl <= 0 {
				ttl = cfg.JWTExpiration
			}

			token, err := auth.NewJWTManager(cfg.JWTSecret, ttl).Generate(&domain.User{
				ID:    ownerID,
				Email: email,
				Role:  domain.Role(role),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&ownerID, "owner", "", "Owner id the token acts for")
	issueCmd.Flags().StringVar(&email, "email", "", "Email recorded in the token")
	issueCmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "Role: viewer, operator or admin")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime, default JWT_EXPIRATION")
	_ = issueCmd.MarkFlagRequired("owner")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}

// API client

type apiClient struct {
	baseURL string
	token   string
	ownerID string
	http    *http.Client
}

func newAPIClient(opts *options) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		token:   opts.token,
		ownerID: opts.ownerID,
		http:    &http.Client{Timeout: opts.timeout},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, payload []byte, headers map[string]string, want int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.ownerID != "" {
		req.Header.Set("X-Owner-ID", c.ownerID)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != want {
		return nil, fmt.Errorf("request failed (status: %d): %s", resp.StatusCode, truncate(strings.TrimSpace(string(respBody)), 200))
	}

	return respBody, nil
}

// Direct backend access

type backend struct {
	cfg   *config.Config
	log   zerolog.Logger
	pool  *pgxpool.Pool
	redis *goredis.Client
}

func withBackend(ctx context.Context, fn func(b *backend) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       2,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	return fn(&backend{cfg: cfg, log: cliLogger(cfg), pool: pool, redis: rdb})
}

func cliLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})
}

// Output helpers

func printJSON(w io.Writer, body []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(body))
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
