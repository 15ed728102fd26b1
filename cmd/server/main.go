package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/bookd/internal/adapter/http"
	"github.com/iho/bookd/internal/adapter/http/handler"
	"github.com/iho/bookd/internal/adapter/http/middleware"
	"github.com/iho/bookd/internal/adapter/memory"
	"github.com/iho/bookd/internal/infrastructure/auth"
	"github.com/iho/bookd/internal/infrastructure/config"
	"github.com/iho/bookd/internal/infrastructure/eventpublisher"
	"github.com/iho/bookd/internal/infrastructure/logger"
	"github.com/iho/bookd/internal/infrastructure/metrics"
	"github.com/iho/bookd/internal/usecase"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	// Resolve the engine options the ledger folds with
	opts, err := cfg.EngineOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve ledger options")
	}

	// The ledger is the authoritative state; everything hangs off it.
	state := usecase.NewLedgerState(opts)

	registry := prometheus.NewRegistry()
	m := metrics.NewWith(registry)

	idGen := memory.NewULIDGenerator()
	clock := memory.SystemClock{}

	// Events go to the structured log through a buffer so bookings never
	// wait on the sink.
	publisher := eventpublisher.NewBufferedPublisher(
		eventpublisher.NewLogPublisher(appLogger), 256, appLogger)

	appCtx, stopWorkers := context.WithCancel(context.Background())
	publisherDone := make(chan struct{})
	go func() {
		defer close(publisherDone)
		_ = publisher.Start(appCtx)
	}()

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(state, idGen, publisher, clock, m)
	queryUC := usecase.NewQueryUseCase(state)
	summaryUC := usecase.NewSummaryUseCase(state, idGen, m)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(ledgerUC, queryUC)
	transactionHandler := handler.NewTransactionHandler(ledgerUC, queryUC)
	commodityHandler := handler.NewCommodityHandler(ledgerUC, queryUC)
	priceHandler := handler.NewPriceHandler(ledgerUC, queryUC)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC, queryUC)
	summaryHandler := handler.NewSummaryHandler(summaryUC)
	healthHandler := handler.NewHealthHandler(queryUC)

	jwtManager, credentials, err := newAuthComponents(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse auth users")
	}
	var authHandler *handler.AuthHandler
	if jwtManager != nil {
		authHandler = handler.NewAuthHandler(jwtManager, credentials)
		log.Info().Int("users", len(credentials)).Msg("authentication enabled")
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-appCtx.Done():
					return
				case <-ticker.C:
					rateLimiter.CleanupLimiters()
				}
			}
		}()
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     accountHandler,
		TransactionHandler: transactionHandler,
		CommodityHandler:   commodityHandler,
		PriceHandler:       priceHandler,
		LedgerHandler:      ledgerHandler,
		SummaryHandler:     summaryHandler,
		AuthHandler:        authHandler,
		HealthHandler:      healthHandler,
		Logger:             appLogger,
		IdempotencyStore:   memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		IdempotencyTTL:     cfg.IdempotencyTTL,
		JWTManager:         jwtManager,
		MetricsRegistry:    registry,
		RateLimiter:        rateLimiter,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("booking", string(opts.DefaultBooking)).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Stop background workers and let the publisher drain.
	stopWorkers()
	<-publisherDone

	log.Info().Msg("server stopped")
}

// newAuthComponents builds the JWT manager and credential set, or nils when
// JWT_SECRET is unset and the API runs open.
func newAuthComponents(cfg *config.Config) (*auth.JWTManager, auth.Credentials, error) {
	if cfg.JWTSecret == "" {
		return nil, nil, nil
	}
	credentials, err := auth.ParseCredentials(cfg.AuthUsers)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), credentials, nil
}
