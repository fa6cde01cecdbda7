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

	"github.com/Niconord59/crm-axivity-sub001/internal/adapters"
	"github.com/Niconord59/crm-axivity-sub001/internal/events"
	apphttp "github.com/Niconord59/crm-axivity-sub001/internal/http"
	"github.com/Niconord59/crm-axivity-sub001/internal/http/router"
	"github.com/Niconord59/crm-axivity-sub001/internal/invalidation"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/dispatch"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle"
	"github.com/Niconord59/crm-axivity-sub001/platform/cache"
	"github.com/Niconord59/crm-axivity-sub001/platform/config"
	"github.com/Niconord59/crm-axivity-sub001/platform/db"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"
	"github.com/Niconord59/crm-axivity-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	healthChecks := map[string]apphttp.HealthChecker{
		"database": db.NewPoolAdapter(pool),
	}
	if redisClient := initInvalidation(ctx, cfg, eventBus, log); redisClient != nil {
		defer redisClient.Close()
		healthChecks["redis"] = cache.NewHealthCheck(redisClient)
	}

	relanceDispatcher, err := dispatch.New(cfg, log)
	if err != nil {
		log.Warn("relance dispatch disabled; configure DUNNING_WEBHOOK_URL or SMTP_HOST", "error", err)
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	lifecycleModule := lifecycle.NewModule(pool, cfg.GetStoreCallTimeout(), eventBus, val, log)
	invoicesModule := invoices.NewModule(pool, cfg.GetStoreCallTimeout(), relanceDispatcher, eventBus, log)

	// Wire audit trail: invoices → lifecycle interactions
	invoicesModule.SetAuditWriter(adapters.NewDunningInteractionWriter(lifecycleModule.Repository()))

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: healthChecks,
		Modules: []apphttp.Module{
			lifecycleModule,
			invoicesModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initInvalidation registers the Redis invalidation publisher on bus and
// returns its client, or nil when Redis is not configured or unreachable.
func initInvalidation(ctx context.Context, cfg config.InvalidationConfig, bus events.Bus, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; cache invalidation fan-out disabled")
		return nil
	}

	client, err := cache.Connect(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to connect invalidation publisher", "error", err)
		return nil
	}

	invalidation.NewPublisher(client, cfg.GetInvalidationChannel(), log).Register(bus)
	log.Info("cache invalidation publisher registered", "channel", cfg.GetInvalidationChannel())

	return client
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
