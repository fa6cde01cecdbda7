package repository

import (
	"context"

	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// ContactReader provides read-only access to contacts.
type ContactReader interface {
	GetContact(ctx context.Context, id uuid.UUID) (Contact, error)
	ListContacts(ctx context.Context, filter ContactFilter) ([]Contact, error)
	ListStageSnapshots(ctx context.Context) ([]domain.ContactSnapshot, error)
}

// ContactStageWriter changes lifecycle stages. Implementations stamp
// lifecycle_stage_changed_at only when the stored stage actually changes.
type ContactStageWriter interface {
	UpdateContactStage(ctx context.Context, id uuid.UUID, stage domain.LifecycleStage) (StageChange, error)
	BulkUpdateContactStage(ctx context.Context, ids []uuid.UUID, stage domain.LifecycleStage) ([]uuid.UUID, error)
}

// AccountStore reads accounts and updates their status.
type AccountStore interface {
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	UpdateAccountStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) (Account, error)
}

// OpportunityWriter creates opportunities and their contact links.
type OpportunityWriter interface {
	CreateOpportunity(ctx context.Context, params CreateOpportunityParams) (Opportunity, error)
	CreateOpportunityContact(ctx context.Context, params CreateOpportunityContactParams) (OpportunityContact, error)
}

// OpportunityReader provides read-only access to opportunities.
type OpportunityReader interface {
	GetOpportunity(ctx context.Context, id uuid.UUID) (Opportunity, error)
	ListOpportunityContacts(ctx context.Context, opportunityID uuid.UUID) ([]OpportunityContact, error)
}

// InteractionWriter appends to the audit trail.
type InteractionWriter interface {
	CreateInteraction(ctx context.Context, params CreateInteractionParams) (Interaction, error)
}

// InteractionReader lists the audit trail of a contact, newest first.
type InteractionReader interface {
	ListInteractions(ctx context.Context, contactID uuid.UUID) ([]Interaction, error)
}

// ConversionWriter is the set of writes that make up an essential conversion.
type ConversionWriter interface {
	OpportunityWriter
	ContactStageWriter
}

// Transactor runs fn against a writer bound to a single database transaction.
// The transaction commits only if fn returns nil.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(w ConversionWriter) error) error
}

// Store is everything the lifecycle service needs.
type Store interface {
	ContactReader
	ContactStageWriter
	AccountStore
	OpportunityWriter
	OpportunityReader
	InteractionWriter
	InteractionReader
}
