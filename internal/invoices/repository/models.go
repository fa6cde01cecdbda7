package repository

import (
	"errors"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"

	"github.com/google/uuid"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// Invoice holds the fields dunning reads and writes.
type Invoice struct {
	ID                 uuid.UUID
	InvoiceNumber      string
	AccountID          uuid.UUID
	ContactID          *uuid.UUID
	Status             domain.InvoiceStatus
	DueDate            time.Time
	AmountExclTaxCents int64
	AmountInclTaxCents int64
	AmountDueCents     int64
	EscalationLevel    int
	LastRelanceAt      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DaysOverdue is computed on read, never stored.
func (i Invoice) DaysOverdue(now time.Time) int {
	return domain.DaysOverdue(now, i.DueDate)
}

// IsOverdue reports whether an open invoice is past its due date.
func (i Invoice) IsOverdue(now time.Time) bool {
	return i.Status.Open() && i.DaysOverdue(now) > 0
}

// Recipient is the party a relance is addressed to.
type Recipient struct {
	AccountName  string
	ContactID    *uuid.UUID
	ContactName  string
	ContactEmail *string
}

// HasEmail reports whether the recipient can be reached.
func (r Recipient) HasEmail() bool {
	return r.ContactEmail != nil && *r.ContactEmail != ""
}
