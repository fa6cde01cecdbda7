package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
	"github.com/Niconord59/crm-axivity-sub001/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultCandidateLimit = 200

// Repository is the Postgres-backed invoice store.
type Repository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// New creates a repository. Every call is bounded by timeout.
func New(pool *pgxpool.Pool, timeout time.Duration) *Repository {
	return &Repository{pool: pool, timeout: timeout}
}

const invoiceColumns = `id, invoice_number, account_id, contact_id, status, due_date,
	amount_excl_tax_cents, amount_incl_tax_cents, amount_due_cents,
	escalation_level, last_relance_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var status string
	if err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.AccountID, &inv.ContactID, &status, &inv.DueDate,
		&inv.AmountExclTaxCents, &inv.AmountInclTaxCents, &inv.AmountDueCents,
		&inv.EscalationLevel, &inv.LastRelanceAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return Invoice{}, err
	}
	inv.Status = domain.InvoiceStatus(status)
	return inv, nil
}

func (r *Repository) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrInvoiceNotFound
	}
	if err != nil {
		return Invoice{}, db.MapError("invoices.get", err)
	}
	return inv, nil
}

func (r *Repository) GetRecipient(ctx context.Context, inv Invoice) (Recipient, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rec Recipient
	var first, last *string
	err := r.pool.QueryRow(ctx, `
		SELECT a.name, c.id, c.first_name, c.last_name, c.email
		FROM accounts a
		LEFT JOIN LATERAL (
			SELECT id, first_name, last_name, email
			FROM contacts
			WHERE id = $2
			   OR ($2::uuid IS NULL AND owner_account_id = a.id AND email IS NOT NULL AND email <> '')
			ORDER BY created_at ASC
			LIMIT 1
		) c ON true
		WHERE a.id = $1`, inv.AccountID, inv.ContactID,
	).Scan(&rec.AccountName, &rec.ContactID, &first, &last, &rec.ContactEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return Recipient{}, ErrInvoiceNotFound
	}
	if err != nil {
		return Recipient{}, db.MapError("invoices.recipient", err)
	}
	rec.ContactName = strings.TrimSpace(deref(first) + " " + deref(last))
	return rec, nil
}

func (r *Repository) UpdateEscalationLevel(ctx context.Context, id uuid.UUID, level int, relancedAt time.Time) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET escalation_level = $2, last_relance_at = $3, updated_at = now()
		WHERE id = $1`, id, level, relancedAt)
	if err != nil {
		return db.MapError("invoices.update_escalation", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *Repository) ListEscalationCandidates(ctx context.Context, asOf time.Time, limit int) ([]Invoice, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	// Level thresholds mirror domain.EscalationLevelFor. Rows already at their
	// level, or without a reachable email, must not use up the limit.
	rows, err := r.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices i
		WHERE i.status = $1
		  AND i.due_date < $2::date
		  AND CASE
				WHEN $2::date - i.due_date <= 7 THEN 1
				WHEN $2::date - i.due_date <= 15 THEN 2
				ELSE 3
			  END > i.escalation_level
		  AND EXISTS (
			SELECT 1 FROM contacts c
			WHERE c.email IS NOT NULL AND c.email <> ''
			  AND (c.id = i.contact_id OR (i.contact_id IS NULL AND c.owner_account_id = i.account_id))
		  )
		ORDER BY i.due_date ASC
		LIMIT $3`, string(domain.InvoiceSent), asOf, limit)
	if err != nil {
		return nil, db.MapError("invoices.candidates", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, db.MapError("invoices.candidates", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError("invoices.candidates", err)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Store = (*Repository)(nil)
