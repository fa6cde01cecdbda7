package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/adapters"
	"github.com/Niconord59/crm-axivity-sub001/internal/events"
	"github.com/Niconord59/crm-axivity-sub001/internal/invalidation"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/dispatch"
	invoicerepo "github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository"
	invoicesvc "github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"
	lifecyclerepo "github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
	"github.com/Niconord59/crm-axivity-sub001/internal/scheduler"
	"github.com/Niconord59/crm-axivity-sub001/platform/cache"
	"github.com/Niconord59/crm-axivity-sub001/platform/config"
	"github.com/Niconord59/crm-axivity-sub001/platform/db"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	if redisClient, err := cache.Connect(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure()); err != nil {
		log.Warn("cache invalidation fan-out disabled", "error", err)
	} else {
		defer func() { _ = redisClient.Close() }()
		invalidation.NewPublisher(redisClient, cfg.GetInvalidationChannel(), log).Register(eventBus)
	}

	relanceDispatcher, err := dispatch.New(cfg, log)
	if err != nil {
		log.Warn("relance dispatch disabled; queued relances will be retried", "error", err)
	}

	// Worker-side dunning wiring (no HTTP handlers required).
	dunning := invoicesvc.New(invoicerepo.New(pool, cfg.GetStoreCallTimeout()), relanceDispatcher, eventBus, log)
	dunning.SetAuditWriter(adapters.NewDunningInteractionWriter(lifecyclerepo.New(pool, cfg.GetStoreCallTimeout())))

	if cfg.IsDunningAutoRelanceEnabled() {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer func() { _ = client.Close() }()

		sweep := scheduler.NewDunningSweep(dunning, client, cfg.GetDunningSweepInterval(), log)
		go sweep.Run(ctx)
		log.Info("dunning sweep started", "interval", cfg.GetDunningSweepInterval())
	} else {
		log.Info("DUNNING_AUTO_RELANCE disabled; only queued relances are processed")
	}

	worker, err := scheduler.NewWorker(cfg, dunning, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
