// Package service implements the lifecycle use cases: stage transitions,
// prospect conversion and funnel analytics.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/events"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
	"github.com/Niconord59/crm-axivity-sub001/platform/apperr"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"
	"github.com/Niconord59/crm-axivity-sub001/platform/saga"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Service handles lifecycle operations.
type Service struct {
	repo   repository.Store
	tx     repository.Transactor
	bus    events.Bus
	log    *logger.Logger
	runner *saga.Runner
	now    func() time.Time
}

// New creates the lifecycle service. When repo also implements
// repository.Transactor, the essential conversion writes share a transaction.
func New(repo repository.Store, bus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		repo:   repo,
		bus:    bus,
		log:    log,
		runner: saga.NewRunner(log),
		now:    time.Now,
	}
	if tx, ok := repo.(repository.Transactor); ok {
		s.tx = tx
	}
	return s
}

// SetClock overrides the clock used for expected close dates.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

// StageOptions lists every stage with its label, rank and suggested successor.
func (s *Service) StageOptions() []domain.StageOption {
	return domain.StageOptions()
}

// ListContacts returns contacts matching the filter, newest first.
func (s *Service) ListContacts(ctx context.Context, filter repository.ContactFilter) ([]repository.Contact, error) {
	for _, st := range filter.Stages {
		if !st.Valid() {
			return nil, apperr.Validation("invalid lifecycle stage").WithDetails(map[string]string{"stage": string(st)})
		}
	}
	return s.repo.ListContacts(ctx, filter)
}

// ListInteractions returns the audit trail of a contact, newest first.
func (s *Service) ListInteractions(ctx context.Context, contactID uuid.UUID) ([]repository.Interaction, error) {
	return s.repo.ListInteractions(ctx, contactID)
}

// OpportunityDetail is an opportunity with its derived values and linked contacts.
type OpportunityDetail struct {
	Opportunity        repository.Opportunity
	WeightedValueCents *int64
	Contacts           []repository.OpportunityContact
}

// GetOpportunity loads an opportunity and its contact links concurrently.
func (s *Service) GetOpportunity(ctx context.Context, id uuid.UUID) (OpportunityDetail, error) {
	var detail OpportunityDetail

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := s.repo.GetOpportunity(gctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrOpportunityNotFound) {
				return apperr.NotFound("opportunity not found")
			}
			return err
		}
		detail.Opportunity = o
		return nil
	})
	g.Go(func() error {
		links, err := s.repo.ListOpportunityContacts(gctx, id)
		if err != nil {
			return err
		}
		detail.Contacts = links
		return nil
	})
	if err := g.Wait(); err != nil {
		return OpportunityDetail{}, err
	}

	detail.WeightedValueCents = domain.WeightedValue(detail.Opportunity.EstimatedValueCents, detail.Opportunity.ProbabilityPercent)
	return detail, nil
}

// Funnel computes the funnel report over every contact.
func (s *Service) Funnel(ctx context.Context) (domain.FunnelReport, error) {
	snapshots, err := s.repo.ListStageSnapshots(ctx)
	if err != nil {
		return domain.FunnelReport{}, err
	}
	return domain.ComputeFunnel(snapshots), nil
}
