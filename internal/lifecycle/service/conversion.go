package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/events"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
	"github.com/Niconord59/crm-axivity-sub001/platform/apperr"
	"github.com/Niconord59/crm-axivity-sub001/platform/saga"
	"github.com/Niconord59/crm-axivity-sub001/platform/sanitize"

	"github.com/google/uuid"
)

// Conversion step names, reported on failure.
const (
	StepCreateOpportunity  = "create_opportunity"
	StepLinkPrimaryContact = "link_primary_contact"
	StepAdvanceContact     = "advance_contact_stage"
	StepConversionAudit    = "conversion_audit"
	StepActivateAccount    = "activate_account"
)

// ConvertParams identifies the prospect to promote.
type ConvertParams struct {
	ContactID           uuid.UUID
	AccountID           uuid.UUID
	ContactDisplayName  string
	AccountDisplayName  string
	EstimatedValueCents *int64
	Notes               *string
}

// ConversionResult identifies what the conversion created. SideEffects holds
// the outcome of the audit and account steps, which never fail the call.
type ConversionResult struct {
	ContactID     uuid.UUID
	AccountID     uuid.UUID
	OpportunityID uuid.UUID
	AccountNudged bool
	SideEffects   []saga.Outcome
}

// Convert promotes a contact into an open opportunity. The opportunity, its
// primary-contact link and the contact stage are essential and share a
// transaction when the store supports one. Without a transaction an earlier
// essential write stays in place if a later one fails. The audit interaction
// and the Prospect to Active account nudge are best-effort.
//
// Nothing prevents two concurrent conversions of the same contact from each
// creating an opportunity.
func (s *Service) Convert(ctx context.Context, params ConvertParams) (ConversionResult, error) {
	params.ContactDisplayName = sanitize.Text(params.ContactDisplayName)
	params.AccountDisplayName = sanitize.Text(params.AccountDisplayName)
	params.Notes = sanitize.TextPtr(params.Notes)
	if params.ContactDisplayName == "" || params.AccountDisplayName == "" {
		return ConversionResult{}, apperr.Validation("contact and account display names are required")
	}
	if params.EstimatedValueCents != nil && *params.EstimatedValueCents < 0 {
		return ConversionResult{}, apperr.Validation("estimated value must not be negative")
	}

	var opportunity repository.Opportunity
	essential := func(w repository.ConversionWriter) error {
		_, err := s.runner.Run(ctx, s.essentialConversionSteps(w, params, &opportunity))
		return err
	}

	var err error
	if s.tx != nil {
		err = s.tx.RunInTx(ctx, essential)
	} else {
		err = essential(s.repo)
	}
	if err != nil {
		return ConversionResult{}, err
	}

	nudged := false
	report, _ := s.runner.Run(ctx, []saga.Step{
		{
			Name: StepConversionAudit,
			Run: func(ctx context.Context) error {
				accountID := params.AccountID
				return s.writeInteraction(ctx, params.ContactID, &accountID, domain.InteractionConversion,
					fmt.Sprintf("Converted to opportunity %q", opportunity.Name))
			},
		},
		{
			Name: StepActivateAccount,
			Run: func(ctx context.Context) error {
				var err error
				nudged, err = s.activateProspectAccount(ctx, params.AccountID)
				return err
			},
		},
	})

	s.publish(ctx, events.ContactConverted{
		BaseEvent:     events.NewBaseEvent(),
		ContactID:     params.ContactID,
		AccountID:     params.AccountID,
		OpportunityID: opportunity.ID,
		AccountNudged: nudged,
	})

	return ConversionResult{
		ContactID:     params.ContactID,
		AccountID:     params.AccountID,
		OpportunityID: opportunity.ID,
		AccountNudged: nudged,
		SideEffects:   report.BestEffort,
	}, nil
}

func (s *Service) essentialConversionSteps(w repository.ConversionWriter, params ConvertParams, opportunity *repository.Opportunity) []saga.Step {
	return []saga.Step{
		{
			Name:      StepCreateOpportunity,
			Essential: true,
			Run: func(ctx context.Context) error {
				probability := domain.ConversionProbabilityPercent
				closeDate := truncateToDay(s.now().AddDate(0, 0, domain.ConversionCloseWindowDays))
				contactID := params.ContactID
				o, err := w.CreateOpportunity(ctx, repository.CreateOpportunityParams{
					Name:                domain.OpportunityName(params.AccountDisplayName, params.ContactDisplayName),
					AccountID:           params.AccountID,
					Stage:               domain.PipelineQualified,
					EstimatedValueCents: params.EstimatedValueCents,
					ProbabilityPercent:  &probability,
					ExpectedCloseDate:   &closeDate,
					PrimaryContactID:    &contactID,
					Notes:               params.Notes,
				})
				if err != nil {
					return err
				}
				*opportunity = o
				return nil
			},
		},
		{
			Name:      StepLinkPrimaryContact,
			Essential: true,
			Run: func(ctx context.Context) error {
				_, err := w.CreateOpportunityContact(ctx, repository.CreateOpportunityContactParams{
					OpportunityID: opportunity.ID,
					ContactID:     params.ContactID,
					Role:          domain.RoleDecider,
					IsPrimary:     true,
				})
				return err
			},
		},
		{
			Name:      StepAdvanceContact,
			Essential: true,
			Run: func(ctx context.Context) error {
				_, err := w.UpdateContactStage(ctx, params.ContactID, domain.StageOpportunity)
				if errors.Is(err, repository.ErrContactNotFound) {
					return apperr.NotFound("contact not found")
				}
				return err
			},
		},
	}
}

// activateProspectAccount moves the account to Active only when it is exactly
// Prospect. It reports whether a write happened.
func (s *Service) activateProspectAccount(ctx context.Context, accountID uuid.UUID) (bool, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	if account.Status != domain.AccountProspect {
		return false, nil
	}
	if _, err := s.repo.UpdateAccountStatus(ctx, accountID, domain.AccountActive); err != nil {
		return false, err
	}
	return true, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
