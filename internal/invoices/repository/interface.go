package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceReader reads invoices and their relance recipient.
type InvoiceReader interface {
	GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)
	// GetRecipient resolves the invoice contact, falling back to the oldest
	// account contact with an email address.
	GetRecipient(ctx context.Context, inv Invoice) (Recipient, error)
	// ListEscalationCandidates returns open invoices due before asOf whose
	// level computed at asOf is above the stored one and whose recipient has
	// an email address, oldest due date first. The limit applies after both
	// filters.
	ListEscalationCandidates(ctx context.Context, asOf time.Time, limit int) ([]Invoice, error)
}

// InvoiceWriter persists the outcome of a confirmed relance.
type InvoiceWriter interface {
	UpdateEscalationLevel(ctx context.Context, id uuid.UUID, level int, relancedAt time.Time) error
}

// Store is the full invoice store contract.
type Store interface {
	InvoiceReader
	InvoiceWriter
}
