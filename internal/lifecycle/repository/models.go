package repository

import (
	"errors"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"

	"github.com/google/uuid"
)

var (
	ErrContactNotFound     = errors.New("contact not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrOpportunityNotFound = errors.New("opportunity not found")
)

type Contact struct {
	ID                      uuid.UUID
	FirstName               string
	LastName                string
	Email                   *string
	OwnerAccountID          *uuid.UUID
	LifecycleStage          *domain.LifecycleStage
	LifecycleStageChangedAt *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// DisplayName joins first and last name.
func (c Contact) DisplayName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ContactFilter narrows ListContacts. Empty fields match everything.
type ContactFilter struct {
	Stages    []domain.LifecycleStage
	AccountID *uuid.UUID
}

// StageChange is the state of a contact right after a stage write.
type StageChange struct {
	ID                      uuid.UUID
	OwnerAccountID          *uuid.UUID
	LifecycleStage          domain.LifecycleStage
	LifecycleStageChangedAt *time.Time
}

type Account struct {
	ID        uuid.UUID
	Name      string
	Status    domain.AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Opportunity struct {
	ID                  uuid.UUID
	Name                string
	AccountID           uuid.UUID
	Stage               domain.PipelineStage
	EstimatedValueCents *int64
	ProbabilityPercent  *int
	ExpectedCloseDate   *time.Time
	PrimaryContactID    *uuid.UUID
	Notes               *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CreateOpportunityParams struct {
	Name                string
	AccountID           uuid.UUID
	Stage               domain.PipelineStage
	EstimatedValueCents *int64
	ProbabilityPercent  *int
	ExpectedCloseDate   *time.Time
	PrimaryContactID    *uuid.UUID
	Notes               *string
}

type OpportunityContact struct {
	ID            uuid.UUID
	OpportunityID uuid.UUID
	ContactID     uuid.UUID
	Role          domain.ContactRole
	IsPrimary     bool
	CreatedAt     time.Time
}

type CreateOpportunityContactParams struct {
	OpportunityID uuid.UUID
	ContactID     uuid.UUID
	Role          domain.ContactRole
	IsPrimary     bool
}

type Interaction struct {
	ID               uuid.UUID
	SubjectContactID *uuid.UUID
	AccountID        *uuid.UUID
	Kind             domain.InteractionKind
	Summary          string
	OccurredAt       time.Time
}

type CreateInteractionParams struct {
	SubjectContactID *uuid.UUID
	AccountID        *uuid.UUID
	Kind             domain.InteractionKind
	Summary          string
}
