package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/bookd/internal/adapter/http/handler"
	"github.com/iho/bookd/internal/adapter/http/middleware"
	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/infrastructure/auth"
	"github.com/iho/bookd/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	CommodityHandler   *handler.CommodityHandler
	PriceHandler       *handler.PriceHandler
	LedgerHandler      *handler.LedgerHandler
	SummaryHandler     *handler.SummaryHandler
	AuthHandler        *handler.AuthHandler
	HealthHandler      *handler.HealthHandler

	Logger zerolog.Logger

	// IdempotencyStore deduplicates mutating requests by Idempotency-Key.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	// JWTManager enables bearer-token auth and the /auth endpoints. When
	// nil the API is open, which is the expected mode for a local ledger.
	JWTManager *auth.JWTManager

	// MetricsRegistry enables the metrics middleware and /metrics endpoint.
	MetricsRegistry *prometheus.Registry

	// RateLimiter throttles per client IP when set.
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.MetricsRegistry != nil {
		r.Use(middleware.NewHTTPMetrics(cfg.MetricsRegistry).Wrap)
	}
	r.Use(middleware.Recovery)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.With(middleware.AuthMiddleware(cfg.JWTManager)).Get("/auth/me", cfg.AuthHandler.Me)
		}

		// Reads: any authenticated role.
		r.Group(func(r chi.Router) {
			if cfg.JWTManager != nil {
				r.Use(middleware.AuthMiddleware(cfg.JWTManager))
				r.Use(middleware.RequireRole(domain.RoleAuditor))
			}

			r.Get("/accounts", cfg.AccountHandler.List)
			r.Get("/accounts/tree", cfg.AccountHandler.Tree)
			r.Get("/accounts/{name}", cfg.AccountHandler.Get)
			r.Get("/accounts/{name}/balance", cfg.AccountHandler.Balance)
			r.Get("/accounts/{name}/inventory", cfg.AccountHandler.Inventory)

			r.Get("/transactions", cfg.TransactionHandler.List)
			r.Get("/transactions/{id}", cfg.TransactionHandler.Get)

			r.Get("/commodities", cfg.CommodityHandler.List)

			r.Get("/prices", cfg.PriceHandler.Pairs)
			r.Get("/prices/{base}/{quote}", cfg.PriceHandler.Series)
			r.Get("/prices/{base}/{quote}/latest", cfg.PriceHandler.Latest)

			r.Get("/diagnostics", cfg.LedgerHandler.Diagnostics)
			r.Get("/ledger/options", cfg.LedgerHandler.Options)

			// Summaries read the shared ledger into a private copy.
			r.Post("/summaries", cfg.SummaryHandler.Clamp)
		})

		// Writes: bookkeeper or admin, deduplicated by Idempotency-Key.
		r.Group(func(r chi.Router) {
			if cfg.JWTManager != nil {
				r.Use(middleware.AuthMiddleware(cfg.JWTManager))
				r.Use(middleware.RequireRole(domain.RoleBookkeeper))
			}
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
			}

			r.Post("/accounts", cfg.AccountHandler.Open)
			r.Post("/accounts/{name}/close", cfg.AccountHandler.Close)
			r.Post("/accounts/{name}/pad", cfg.AccountHandler.Pad)
			r.Post("/accounts/{name}/assertions", cfg.AccountHandler.Assert)

			r.Post("/transactions", cfg.TransactionHandler.Submit)
			r.Post("/commodities", cfg.CommodityHandler.Declare)
			r.Post("/prices", cfg.PriceHandler.Add)
		})

		// Admin: ending the fold.
		r.Group(func(r chi.Router) {
			if cfg.JWTManager != nil {
				r.Use(middleware.AuthMiddleware(cfg.JWTManager))
				r.Use(middleware.RequireRole(domain.RoleAdmin))
			}

			r.Post("/ledger/finish", cfg.LedgerHandler.Finish)
		})
	})

	return r
}
