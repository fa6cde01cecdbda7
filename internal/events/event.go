// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"github.com/Niconord59/crm-axivity-sub001/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lifecycle Domain Events
// =============================================================================

// ContactStageChanged is published after a single stage transition.
type ContactStageChanged struct {
	BaseEvent
	ContactID      uuid.UUID  `json:"contactId"`
	AccountID      *uuid.UUID `json:"accountId,omitempty"`
	PreviousStage  string     `json:"previousStage,omitempty"`
	Stage          string     `json:"stage"`
	StageChangedAt *time.Time `json:"stageChangedAt,omitempty"`
	Forced         bool       `json:"forced"`
}

func (e ContactStageChanged) EventName() string { return "lifecycle.contact.stage_changed" }

// ContactsStageBulkChanged is published after a batch stage update that matched
// at least one contact.
type ContactsStageBulkChanged struct {
	BaseEvent
	ContactIDs []uuid.UUID `json:"contactIds"`
	Stage      string      `json:"stage"`
}

func (e ContactsStageBulkChanged) EventName() string { return "lifecycle.contacts.stage_bulk_changed" }

// ContactConverted is published after the essential conversion writes succeed.
type ContactConverted struct {
	BaseEvent
	ContactID     uuid.UUID `json:"contactId"`
	AccountID     uuid.UUID `json:"accountId"`
	OpportunityID uuid.UUID `json:"opportunityId"`
	AccountNudged bool      `json:"accountNudged"`
}

func (e ContactConverted) EventName() string { return "lifecycle.contact.converted" }

// =============================================================================
// Invoices Domain Events
// =============================================================================

// InvoiceRelanceSent is published after a relance was dispatched and the new
// escalation level stored.
type InvoiceRelanceSent struct {
	BaseEvent
	InvoiceID       uuid.UUID `json:"invoiceId"`
	InvoiceNumber   string    `json:"invoiceNumber"`
	EscalationLevel int       `json:"escalationLevel"`
	DaysOverdue     int       `json:"daysOverdue"`
	Channel         string    `json:"channel"`
}

func (e InvoiceRelanceSent) EventName() string { return "invoices.invoice.relance_sent" }
