// Package service implements invoice dunning: previewing the escalation level
// and sending a relance.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/events"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/dispatch"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository"
	"github.com/Niconord59/crm-axivity-sub001/platform/apperr"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"
	"github.com/Niconord59/crm-axivity-sub001/platform/saga"

	"github.com/google/uuid"
)

const (
	CodeNotOverdue       = "not_overdue"
	CodeInvoiceClosed    = "invoice_closed"
	CodeMissingRecipient = "missing_recipient"
	CodeDispatchFailed   = "dispatch_failed"

	stepDunningAudit = "dunning_audit"

	dueDateLayout = "2006-01-02"
)

// AuditWriter records a dunning interaction in the contact audit trail.
type AuditWriter interface {
	RecordDunning(ctx context.Context, params DunningAuditParams) error
}

// DunningAuditParams describes one sent relance.
type DunningAuditParams struct {
	ContactID *uuid.UUID
	AccountID uuid.UUID
	Summary   string
}

// Service handles invoice dunning.
type Service struct {
	repo       repository.Store
	dispatcher dispatch.Dispatcher
	audit      AuditWriter
	bus        events.Bus
	log        *logger.Logger
	runner     *saga.Runner
	now        func() time.Time
}

// New creates the dunning service. A nil dispatcher makes every relance fail
// with a dispatch error.
func New(repo repository.Store, dispatcher dispatch.Dispatcher, bus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		bus:        bus,
		log:        log,
		runner:     saga.NewRunner(log),
		now:        time.Now,
	}
}

// SetAuditWriter injects the interaction writer owned by the lifecycle context.
func (s *Service) SetAuditWriter(w AuditWriter) {
	s.audit = w
}

// SetClock overrides the clock used for overdue arithmetic.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Preview is the computed dunning state of an invoice.
type Preview struct {
	InvoiceID       uuid.UUID
	InvoiceNumber   string
	Status          domain.InvoiceStatus
	DueDate         time.Time
	DaysOverdue     int
	Overdue         bool
	EscalationLevel int
	StoredLevel     int
	LastRelanceAt   *time.Time
}

// Preview computes the escalation level without dispatching or writing.
func (s *Service) Preview(ctx context.Context, invoiceID uuid.UUID) (Preview, error) {
	inv, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return Preview{}, err
	}
	now := s.now()
	days := inv.DaysOverdue(now)
	return Preview{
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Status:          inv.Status,
		DueDate:         inv.DueDate,
		DaysOverdue:     days,
		Overdue:         inv.IsOverdue(now),
		EscalationLevel: domain.EscalationLevelFor(days),
		StoredLevel:     inv.EscalationLevel,
		LastRelanceAt:   inv.LastRelanceAt,
	}, nil
}

// RelanceResult reports a confirmed relance.
type RelanceResult struct {
	InvoiceID       uuid.UUID
	EscalationLevel int
	PreviousLevel   int
	DaysOverdue     int
	Channel         string
	RelancedAt      time.Time
	Audit           saga.Outcome
}

// Relance sends a relance for an overdue invoice and stores the new level.
// Preconditions are checked before anything is sent, and the stored level
// only changes once the dispatcher confirms delivery.
func (s *Service) Relance(ctx context.Context, invoiceID uuid.UUID) (RelanceResult, error) {
	inv, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return RelanceResult{}, err
	}

	now := s.now()
	days := inv.DaysOverdue(now)
	level := domain.EscalationLevelFor(days)

	if !inv.Status.Open() {
		return RelanceResult{}, apperr.Precondition("invoice is not awaiting payment").
			WithCode(CodeInvoiceClosed).
			WithDetails(map[string]string{"status": string(inv.Status)})
	}
	if level == 0 {
		return RelanceResult{}, apperr.Precondition("invoice is not overdue").
			WithCode(CodeNotOverdue).
			WithDetails(map[string]int{"daysOverdue": days})
	}

	rec, err := s.repo.GetRecipient(ctx, inv)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return RelanceResult{}, apperr.NotFound("invoice account not found")
		}
		return RelanceResult{}, err
	}
	if !rec.HasEmail() {
		return RelanceResult{}, apperr.Precondition("no contact email to send the relance to").
			WithCode(CodeMissingRecipient)
	}

	payload := buildPayload(inv, rec, days, level)
	channel, err := s.dispatch(ctx, payload)
	if err != nil {
		return RelanceResult{}, err
	}

	if err := s.repo.UpdateEscalationLevel(ctx, inv.ID, level, now); err != nil {
		return RelanceResult{}, fmt.Errorf("relance sent but escalation level not stored: %w", err)
	}
	s.log.WithContext(ctx).DunningDispatched(inv.ID.String(), level, days)

	audit := s.runner.Attempt(ctx, stepDunningAudit, func(ctx context.Context) error {
		if s.audit == nil {
			return nil
		}
		return s.audit.RecordDunning(ctx, DunningAuditParams{
			ContactID: rec.ContactID,
			AccountID: inv.AccountID,
			Summary:   dunningSummary(inv.InvoiceNumber, level, days),
		})
	})

	if s.bus != nil {
		s.bus.Publish(ctx, events.InvoiceRelanceSent{
			BaseEvent:       events.NewBaseEvent(),
			InvoiceID:       inv.ID,
			InvoiceNumber:   inv.InvoiceNumber,
			EscalationLevel: level,
			DaysOverdue:     days,
			Channel:         channel,
		})
	}

	return RelanceResult{
		InvoiceID:       inv.ID,
		EscalationLevel: level,
		PreviousLevel:   inv.EscalationLevel,
		DaysOverdue:     days,
		Channel:         channel,
		RelancedAt:      now,
		Audit:           audit,
	}, nil
}

func (s *Service) dispatch(ctx context.Context, payload domain.RelancePayload) (string, error) {
	if s.dispatcher == nil {
		return "", apperr.Dispatch("relance dispatch failed", dispatch.ErrNoChannel).WithCode(CodeDispatchFailed)
	}
	if err := s.dispatcher.Dispatch(ctx, payload); err != nil {
		return "", apperr.Dispatch("relance dispatch failed", err).
			WithCode(CodeDispatchFailed).
			WithDetails(map[string]string{"channel": s.dispatcher.Channel()})
	}
	return s.dispatcher.Channel(), nil
}

func (s *Service) getInvoice(ctx context.Context, id uuid.UUID) (repository.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if errors.Is(err, repository.ErrInvoiceNotFound) {
		return repository.Invoice{}, apperr.NotFound("invoice not found")
	}
	return inv, err
}

func buildPayload(inv repository.Invoice, rec repository.Recipient, days, level int) domain.RelancePayload {
	return domain.RelancePayload{
		InvoiceID:          inv.ID.String(),
		InvoiceNumber:      inv.InvoiceNumber,
		AmountExclTaxCents: inv.AmountExclTaxCents,
		AmountInclTaxCents: inv.AmountInclTaxCents,
		DueDate:            inv.DueDate.Format(dueDateLayout),
		DaysOverdue:        days,
		EscalationLevel:    level,
		AccountName:        rec.AccountName,
		ContactName:        rec.ContactName,
		ContactEmail:       *rec.ContactEmail,
	}
}

func dunningSummary(invoiceNumber string, level, days int) string {
	return fmt.Sprintf("%s sent for invoice %s (%d days overdue)", domain.LevelLabel(level), invoiceNumber, days)
}
