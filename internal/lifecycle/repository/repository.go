package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	"github.com/Niconord59/crm-axivity-sub001/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Repository is the Postgres-backed lifecycle store.
type Repository struct {
	pool    *pgxpool.Pool
	db      DBTX
	timeout time.Duration
}

// New creates a repository. Every call is bounded by timeout.
func New(pool *pgxpool.Pool, timeout time.Duration) *Repository {
	return &Repository{pool: pool, db: pool, timeout: timeout}
}

// RunInTx runs fn inside a single transaction.
func (r *Repository) RunInTx(ctx context.Context, fn func(w ConversionWriter) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return db.MapError("lifecycle.begin", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx, timeout: r.timeout}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return db.MapError("lifecycle.commit", fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

const contactColumns = `id, first_name, last_name, email, owner_account_id,
	lifecycle_stage, lifecycle_stage_changed_at, created_at, updated_at`

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	var stage *string
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.OwnerAccountID,
		&stage, &c.LifecycleStageChangedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Contact{}, err
	}
	if stage != nil {
		s := domain.LifecycleStage(*stage)
		c.LifecycleStage = &s
	}
	return c, nil
}

func (r *Repository) GetContact(ctx context.Context, id uuid.UUID) (Contact, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	c, err := scanContact(r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrContactNotFound
	}
	if err != nil {
		return Contact{}, db.MapError("contacts.get", err)
	}
	return c, nil
}

func (r *Repository) ListContacts(ctx context.Context, filter ContactFilter) ([]Contact, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var where []string
	var args []interface{}
	if len(filter.Stages) > 0 {
		stages := make([]string, 0, len(filter.Stages))
		for _, s := range filter.Stages {
			stages = append(stages, string(s))
		}
		args = append(args, stages)
		where = append(where, fmt.Sprintf("lifecycle_stage = ANY($%d)", len(args)))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		where = append(where, fmt.Sprintf("owner_account_id = $%d", len(args)))
	}

	query := `SELECT ` + contactColumns + ` FROM contacts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.MapError("contacts.list", err)
	}
	defer rows.Close()

	items := make([]Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, db.MapError("contacts.list", err)
		}
		items = append(items, c)
	}
	if rows.Err() != nil {
		return nil, db.MapError("contacts.list", rows.Err())
	}
	return items, nil
}

func (r *Repository) ListStageSnapshots(ctx context.Context) ([]domain.ContactSnapshot, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT COALESCE(lifecycle_stage, ''), created_at, lifecycle_stage_changed_at FROM contacts`)
	if err != nil {
		return nil, db.MapError("contacts.snapshots", err)
	}
	defer rows.Close()

	items := make([]domain.ContactSnapshot, 0)
	for rows.Next() {
		var s domain.ContactSnapshot
		var stage string
		if err := rows.Scan(&stage, &s.CreatedAt, &s.StageChangedAt); err != nil {
			return nil, db.MapError("contacts.snapshots", err)
		}
		s.Stage = domain.LifecycleStage(stage)
		items = append(items, s)
	}
	if rows.Err() != nil {
		return nil, db.MapError("contacts.snapshots", rows.Err())
	}
	return items, nil
}

func (r *Repository) UpdateContactStage(ctx context.Context, id uuid.UUID, stage domain.LifecycleStage) (StageChange, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out StageChange
	var stored string
	err := r.db.QueryRow(ctx, `
		UPDATE contacts
		SET lifecycle_stage_changed_at = CASE
				WHEN lifecycle_stage IS DISTINCT FROM $2::text THEN now()
				ELSE lifecycle_stage_changed_at
			END,
			lifecycle_stage = $2::text,
			updated_at = now()
		WHERE id = $1
		RETURNING id, owner_account_id, lifecycle_stage, lifecycle_stage_changed_at
	`, id, string(stage)).Scan(&out.ID, &out.OwnerAccountID, &stored, &out.LifecycleStageChangedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StageChange{}, ErrContactNotFound
	}
	if err != nil {
		return StageChange{}, db.MapError("contacts.update_stage", err)
	}
	out.LifecycleStage = domain.LifecycleStage(stored)
	return out, nil
}

func (r *Repository) BulkUpdateContactStage(ctx context.Context, ids []uuid.UUID, stage domain.LifecycleStage) ([]uuid.UUID, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		UPDATE contacts
		SET lifecycle_stage_changed_at = CASE
				WHEN lifecycle_stage IS DISTINCT FROM $2::text THEN now()
				ELSE lifecycle_stage_changed_at
			END,
			lifecycle_stage = $2::text,
			updated_at = now()
		WHERE id = ANY($1)
		RETURNING id
	`, ids, string(stage))
	if err != nil {
		return nil, db.MapError("contacts.bulk_update_stage", err)
	}
	defer rows.Close()

	updated := make([]uuid.UUID, 0, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, db.MapError("contacts.bulk_update_stage", err)
		}
		updated = append(updated, id)
	}
	if rows.Err() != nil {
		return nil, db.MapError("contacts.bulk_update_stage", rows.Err())
	}
	return updated, nil
}

func (r *Repository) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var a Account
	err := r.db.QueryRow(ctx, `
		SELECT id, name, status, created_at, updated_at FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, db.MapError("accounts.get", err)
	}
	return a, nil
}

func (r *Repository) UpdateAccountStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) (Account, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var a Account
	err := r.db.QueryRow(ctx, `
		UPDATE accounts SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, status, created_at, updated_at
	`, id, string(status)).Scan(&a.ID, &a.Name, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, db.MapError("accounts.update_status", err)
	}
	return a, nil
}

const opportunityColumns = `id, name, account_id, stage, estimated_value_cents, probability_percent,
	expected_close_date, primary_contact_id, notes, created_at, updated_at`

func scanOpportunity(row pgx.Row) (Opportunity, error) {
	var o Opportunity
	err := row.Scan(&o.ID, &o.Name, &o.AccountID, &o.Stage, &o.EstimatedValueCents, &o.ProbabilityPercent,
		&o.ExpectedCloseDate, &o.PrimaryContactID, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *Repository) CreateOpportunity(ctx context.Context, params CreateOpportunityParams) (Opportunity, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	o, err := scanOpportunity(r.db.QueryRow(ctx, `
		INSERT INTO opportunities (name, account_id, stage, estimated_value_cents, probability_percent,
			expected_close_date, primary_contact_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+opportunityColumns,
		params.Name, params.AccountID, string(params.Stage), params.EstimatedValueCents, params.ProbabilityPercent,
		params.ExpectedCloseDate, params.PrimaryContactID, params.Notes))
	if err != nil {
		return Opportunity{}, db.MapError("opportunities.create", err)
	}
	return o, nil
}

func (r *Repository) CreateOpportunityContact(ctx context.Context, params CreateOpportunityContactParams) (OpportunityContact, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var link OpportunityContact
	err := r.db.QueryRow(ctx, `
		INSERT INTO opportunity_contacts (opportunity_id, contact_id, role, is_primary)
		VALUES ($1, $2, $3, $4)
		RETURNING id, opportunity_id, contact_id, role, is_primary, created_at
	`, params.OpportunityID, params.ContactID, string(params.Role), params.IsPrimary).Scan(
		&link.ID, &link.OpportunityID, &link.ContactID, &link.Role, &link.IsPrimary, &link.CreatedAt)
	if err != nil {
		return OpportunityContact{}, db.MapError("opportunity_contacts.create", err)
	}
	return link, nil
}

func (r *Repository) GetOpportunity(ctx context.Context, id uuid.UUID) (Opportunity, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	o, err := scanOpportunity(r.db.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Opportunity{}, ErrOpportunityNotFound
	}
	if err != nil {
		return Opportunity{}, db.MapError("opportunities.get", err)
	}
	return o, nil
}

func (r *Repository) ListOpportunityContacts(ctx context.Context, opportunityID uuid.UUID) ([]OpportunityContact, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, opportunity_id, contact_id, role, is_primary, created_at
		FROM opportunity_contacts
		WHERE opportunity_id = $1
		ORDER BY is_primary DESC, created_at ASC
	`, opportunityID)
	if err != nil {
		return nil, db.MapError("opportunity_contacts.list", err)
	}
	defer rows.Close()

	items := make([]OpportunityContact, 0)
	for rows.Next() {
		var link OpportunityContact
		if err := rows.Scan(&link.ID, &link.OpportunityID, &link.ContactID, &link.Role, &link.IsPrimary, &link.CreatedAt); err != nil {
			return nil, db.MapError("opportunity_contacts.list", err)
		}
		items = append(items, link)
	}
	if rows.Err() != nil {
		return nil, db.MapError("opportunity_contacts.list", rows.Err())
	}
	return items, nil
}

func (r *Repository) CreateInteraction(ctx context.Context, params CreateInteractionParams) (Interaction, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var i Interaction
	err := r.db.QueryRow(ctx, `
		INSERT INTO interactions (subject_contact_id, account_id, kind, summary)
		VALUES ($1, $2, $3, $4)
		RETURNING id, subject_contact_id, account_id, kind, summary, occurred_at
	`, params.SubjectContactID, params.AccountID, string(params.Kind), params.Summary).Scan(
		&i.ID, &i.SubjectContactID, &i.AccountID, &i.Kind, &i.Summary, &i.OccurredAt)
	if err != nil {
		return Interaction{}, db.MapError("interactions.create", err)
	}
	return i, nil
}

func (r *Repository) ListInteractions(ctx context.Context, contactID uuid.UUID) ([]Interaction, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, subject_contact_id, account_id, kind, summary, occurred_at
		FROM interactions
		WHERE subject_contact_id = $1
		ORDER BY occurred_at DESC
	`, contactID)
	if err != nil {
		return nil, db.MapError("interactions.list", err)
	}
	defer rows.Close()

	items := make([]Interaction, 0)
	for rows.Next() {
		var i Interaction
		if err := rows.Scan(&i.ID, &i.SubjectContactID, &i.AccountID, &i.Kind, &i.Summary, &i.OccurredAt); err != nil {
			return nil, db.MapError("interactions.list", err)
		}
		items = append(items, i)
	}
	if rows.Err() != nil {
		return nil, db.MapError("interactions.list", rows.Err())
	}
	return items, nil
}

var (
	_ Store      = (*Repository)(nil)
	_ Transactor = (*Repository)(nil)
)
