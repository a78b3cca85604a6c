package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/adapter/http/handler"
	"github.com/iho/cardledger/internal/adapter/http/middleware"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler *handler.AccountHandler
	JobHandler     *handler.JobHandler
	FeedHandler    *handler.FeedHandler
	HealthHandler  *handler.HealthHandler
	AuthHandler    *handler.AuthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// JWTManager enables bearer authentication. Without it the owner comes
	// from the X-Owner-ID header.
	JWTManager  *auth.JWTManager
	RateLimiter *middleware.RateLimiter

	// Registry receives the HTTP metrics. Gatherer backs /metrics.
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer

	CORSAllowedOrigins []string
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Registry != nil {
		r.Use(middleware.NewHTTPMetrics(cfg.Registry).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.IdempotencyKeyHeader, middleware.OwnerIDHeader},
			ExposedHeaders:   []string{"Location", "X-Idempotency-Replay"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		// writes need at least the operator role when authentication is on
		writer := func(h http.HandlerFunc) http.Handler {
			if cfg.JWTManager == nil {
				return h
			}
			return middleware.RequireRole(domain.RoleOperator)(h)
		}
		admin := func(h http.HandlerFunc) http.Handler {
			if cfg.JWTManager == nil {
				return h
			}
			return middleware.RequireRole(domain.RoleAdmin)(h)
		}

		if cfg.AuthHandler != nil {
			r.Get("/me", cfg.AuthHandler.GetCurrentUser)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Method(http.MethodPost, "/", writer(cfg.AccountHandler.Create))
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/periods", cfg.AccountHandler.ListPeriods)
			r.Method(http.MethodPost, "/{id}/reconcile", admin(cfg.AccountHandler.Reconcile))
		})

		r.Get("/periods/{id}/items", cfg.AccountHandler.ListPeriodItems)

		r.Route("/jobs", func(r chi.Router) {
			r.Method(http.MethodPost, "/{kind}", writer(cfg.JobHandler.Submit))
			r.Get("/{id}", cfg.JobHandler.Get)
			r.Get("/{id}/errors", cfg.JobHandler.ListErrors)
			r.Method(http.MethodPost, "/{id}/cancel", writer(cfg.JobHandler.Cancel))
		})

		if cfg.FeedHandler != nil {
			r.Route("/feeds/links", func(r chi.Router) {
				r.Method(http.MethodPost, "/", writer(cfg.FeedHandler.CreateLink))
				r.Method(http.MethodPost, "/{id}/transactions", writer(cfg.FeedHandler.StageTransactions))
			})
		}
	})

	return r
}
