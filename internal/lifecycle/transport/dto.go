package transport

import (
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// UpdateStageRequest is the body of PATCH /contacts/:id/stage.
type UpdateStageRequest struct {
	TargetStage    string  `json:"targetStage" validate:"required"`
	CurrentStage   *string `json:"currentStage,omitempty"`
	ForceDowngrade bool    `json:"forceDowngrade"`
	// CreateAuditRecord defaults to true when omitted.
	CreateAuditRecord *bool      `json:"createAuditRecord,omitempty"`
	AccountID         *uuid.UUID `json:"accountId,omitempty"`
}

// BulkUpdateStageRequest is the body of POST /contacts/stage/bulk.
type BulkUpdateStageRequest struct {
	ContactIDs  []uuid.UUID `json:"contactIds" validate:"max=1000"`
	TargetStage string      `json:"targetStage" validate:"required"`
}

// ConvertRequest is the body of POST /contacts/:id/convert.
type ConvertRequest struct {
	AccountID           uuid.UUID `json:"accountId" validate:"required"`
	ContactDisplayName  string    `json:"contactDisplayName" validate:"required,max=200"`
	AccountDisplayName  string    `json:"accountDisplayName" validate:"required,max=200"`
	EstimatedValueCents *int64    `json:"estimatedValueCents,omitempty" validate:"omitempty,min=0"`
	Notes               *string   `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type StageOptionsResponse struct {
	Stages []domain.StageOption `json:"stages"`
}

type ContactResponse struct {
	ID                      uuid.UUID  `json:"id"`
	FirstName               string     `json:"firstName"`
	LastName                string     `json:"lastName"`
	DisplayName             string     `json:"displayName"`
	Email                   *string    `json:"email,omitempty"`
	OwnerAccountID          *uuid.UUID `json:"ownerAccountId,omitempty"`
	LifecycleStage          *string    `json:"lifecycleStage"`
	LifecycleStageLabel     string     `json:"lifecycleStageLabel,omitempty"`
	NextStage               *string    `json:"nextStage"`
	LifecycleStageChangedAt *time.Time `json:"lifecycleStageChangedAt"`
	CreatedAt               time.Time  `json:"createdAt"`
}

type ContactListResponse struct {
	Items []ContactResponse `json:"items"`
	Total int               `json:"total"`
}

type StageChangeResponse struct {
	ID                      uuid.UUID  `json:"id"`
	LifecycleStage          string     `json:"lifecycleStage"`
	LifecycleStageChangedAt *time.Time `json:"lifecycleStageChangedAt"`
	AuditRecorded           *bool      `json:"auditRecorded,omitempty"`
}

type BulkStageResponse struct {
	UpdatedCount int         `json:"updatedCount"`
	UpdatedIDs   []uuid.UUID `json:"updatedIds"`
}

type SideEffectResponse struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type ConversionResponse struct {
	ContactID     uuid.UUID            `json:"contactId"`
	AccountID     uuid.UUID            `json:"accountId"`
	OpportunityID uuid.UUID            `json:"opportunityId"`
	AccountNudged bool                 `json:"accountActivated"`
	SideEffects   []SideEffectResponse `json:"sideEffects"`
}

type InteractionResponse struct {
	ID               uuid.UUID  `json:"id"`
	SubjectContactID *uuid.UUID `json:"subjectContactId,omitempty"`
	AccountID        *uuid.UUID `json:"accountId,omitempty"`
	Kind             string     `json:"kind"`
	Summary          string     `json:"summary"`
	OccurredAt       time.Time  `json:"occurredAt"`
}

type InteractionListResponse struct {
	Items []InteractionResponse `json:"items"`
}

type OpportunityContactResponse struct {
	ContactID uuid.UUID `json:"contactId"`
	Role      string    `json:"role"`
	IsPrimary bool      `json:"isPrimary"`
}

type OpportunityResponse struct {
	ID                  uuid.UUID                    `json:"id"`
	Name                string                       `json:"name"`
	AccountID           uuid.UUID                    `json:"accountId"`
	Stage               string                       `json:"stage"`
	EstimatedValueCents *int64                       `json:"estimatedValueCents"`
	ProbabilityPercent  *int                         `json:"probabilityPercent"`
	WeightedValueCents  *int64                       `json:"weightedValueCents"`
	ExpectedCloseDate   *string                      `json:"expectedCloseDate"`
	PrimaryContactID    *uuid.UUID                   `json:"primaryContactId,omitempty"`
	Notes               *string                      `json:"notes,omitempty"`
	Contacts            []OpportunityContactResponse `json:"contacts"`
	CreatedAt           time.Time                    `json:"createdAt"`
}
