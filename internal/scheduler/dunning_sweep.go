package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	invoicesvc "github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"

	"golang.org/x/sync/errgroup"
)

const (
	defaultSweepInterval = time.Hour
	sweepBatchSize       = 200
	sweepEnqueueLimit    = 8
)

// CandidateLister finds invoices owed a higher relance.
type CandidateLister interface {
	EscalationCandidates(ctx context.Context, limit int) ([]invoicesvc.Candidate, error)
}

// DunningSweep periodically queues one relance task per escalation candidate.
type DunningSweep struct {
	lister   CandidateLister
	enqueuer RelanceEnqueuer
	interval time.Duration
	log      *logger.Logger
}

func NewDunningSweep(lister CandidateLister, enqueuer RelanceEnqueuer, interval time.Duration, log *logger.Logger) *DunningSweep {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if log == nil {
		log = logger.Discard()
	}
	return &DunningSweep{lister: lister, enqueuer: enqueuer, interval: interval, log: log}
}

// SweepResult counts what one pass did.
type SweepResult struct {
	Candidates int
	Enqueued   int
	Duplicates int
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (s *DunningSweep) Run(ctx context.Context) {
	if s == nil || s.lister == nil || s.enqueuer == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if res, err := s.SweepOnce(ctx); err != nil {
			s.log.Warn("dunning sweep failed", "error", err)
		} else if res.Candidates > 0 {
			s.log.Info("dunning sweep done",
				"candidates", res.Candidates,
				"enqueued", res.Enqueued,
				"duplicates", res.Duplicates,
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce enqueues every current candidate. Enqueue failures do not stop
// the other candidates; the first one is returned.
func (s *DunningSweep) SweepOnce(ctx context.Context) (SweepResult, error) {
	candidates, err := s.lister.EscalationCandidates(ctx, sweepBatchSize)
	if err != nil {
		return SweepResult{}, err
	}

	var enqueued, duplicates atomic.Int64
	var g errgroup.Group
	g.SetLimit(sweepEnqueueLimit)

	for _, c := range candidates {
		g.Go(func() error {
			ok, err := s.enqueuer.EnqueueDunningRelance(ctx, DunningRelancePayload{
				InvoiceID: c.InvoiceID,
				Level:     c.Level,
			})
			if err != nil {
				s.log.Warn("relance enqueue failed", "invoice_id", c.InvoiceID, "error", err)
				return err
			}
			if ok {
				enqueued.Add(1)
			} else {
				duplicates.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	return SweepResult{
		Candidates: len(candidates),
		Enqueued:   int(enqueued.Load()),
		Duplicates: int(duplicates.Load()),
	}, err
}
