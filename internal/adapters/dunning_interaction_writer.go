package adapters

import (
	"context"

	invoicesvc "github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	lifecyclerepo "github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
)

// DunningInteractionWriter adapts the lifecycle InteractionWriter for the invoices domain.
// It implements invoices/service.AuditWriter using interface-segregation.
type DunningInteractionWriter struct {
	store lifecyclerepo.InteractionWriter
}

// NewDunningInteractionWriter creates a new interaction writer adapter.
func NewDunningInteractionWriter(store lifecyclerepo.InteractionWriter) *DunningInteractionWriter {
	return &DunningInteractionWriter{store: store}
}

// RecordDunning appends a "dunning" interaction to the contact's audit trail.
func (a *DunningInteractionWriter) RecordDunning(ctx context.Context, params invoicesvc.DunningAuditParams) error {
	accountID := params.AccountID
	_, err := a.store.CreateInteraction(ctx, lifecyclerepo.CreateInteractionParams{
		SubjectContactID: params.ContactID,
		AccountID:        &accountID,
		Kind:             domain.InteractionDunning,
		Summary:          params.Summary,
	})
	return err
}

// Compile-time check that DunningInteractionWriter implements invoices/service.AuditWriter.
var _ invoicesvc.AuditWriter = (*DunningInteractionWriter)(nil)
