package scheduler

import (
	"context"
	"fmt"

	invoicesvc "github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"
	"github.com/Niconord59/crm-axivity-sub001/platform/apperr"
	"github.com/Niconord59/crm-axivity-sub001/platform/config"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Relancer sends one relance.
type Relancer interface {
	Relance(ctx context.Context, invoiceID uuid.UUID) (invoicesvc.RelanceResult, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	relancer Relancer
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, relancer Relancer, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		relancer: relancer,
		log:      log,
	}

	mux.HandleFunc(TaskDunningRelance, w.handleDunningRelance)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleDunningRelance retries store and dispatch failures. Precondition and
// not-found errors will not change on retry, so the task is dropped.
func (w *Worker) handleDunningRelance(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDunningRelancePayload(task)
	if err != nil {
		return fmt.Errorf("decode relance payload: %v: %w", err, asynq.SkipRetry)
	}

	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("invalid invoice id %q: %w", payload.InvoiceID, asynq.SkipRetry)
	}

	result, err := w.relancer.Relance(ctx, invoiceID)
	switch {
	case err == nil:
	case apperr.Is(err, apperr.KindPrecondition), apperr.Is(err, apperr.KindNotFound):
		w.log.Info("relance skipped", "invoice_id", payload.InvoiceID, "reason", err.Error())
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		return err
	}

	if result.EscalationLevel != payload.Level {
		w.log.Info("relance level moved since enqueue",
			"invoice_id", payload.InvoiceID,
			"queued_level", payload.Level,
			"sent_level", result.EscalationLevel,
		)
	}
	return nil
}
