// Package memory is an in-process invoice store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository"

	"github.com/google/uuid"
)

// Operation names accepted by FailOn and Calls.
const (
	OpGetInvoice               = "GetInvoice"
	OpGetRecipient             = "GetRecipient"
	OpUpdateEscalationLevel    = "UpdateEscalationLevel"
	OpListEscalationCandidates = "ListEscalationCandidates"
)

// Store keeps invoices and recipients in maps guarded by a mutex.
type Store struct {
	mu sync.Mutex

	invoices   map[uuid.UUID]repository.Invoice
	recipients map[uuid.UUID]repository.Recipient

	failures map[string]error
	calls    map[string]int
}

func New() *Store {
	return &Store{
		invoices:   make(map[uuid.UUID]repository.Invoice),
		recipients: make(map[uuid.UUID]repository.Recipient),
		failures:   make(map[string]error),
		calls:      make(map[string]int),
	}
}

// FailOn makes every later call to op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how many times op was invoked, failed calls included.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// PutInvoice inserts or replaces an invoice. Missing ids and statuses are filled in.
func (s *Store) PutInvoice(inv repository.Invoice) repository.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.Status == "" {
		inv.Status = domain.InvoiceSent
	}
	s.invoices[inv.ID] = inv
	return inv
}

// PutRecipient sets the recipient resolved for an invoice.
func (s *Store) PutRecipient(invoiceID uuid.UUID, rec repository.Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients[invoiceID] = rec
}

// Invoice returns the stored invoice, if any.
func (s *Store) Invoice(id uuid.UUID) (repository.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	return inv, ok
}

func (s *Store) enter(op string) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Store) GetInvoice(_ context.Context, id uuid.UUID) (repository.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetInvoice); err != nil {
		return repository.Invoice{}, err
	}
	inv, ok := s.invoices[id]
	if !ok {
		return repository.Invoice{}, repository.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *Store) GetRecipient(_ context.Context, inv repository.Invoice) (repository.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetRecipient); err != nil {
		return repository.Recipient{}, err
	}
	if _, ok := s.invoices[inv.ID]; !ok {
		return repository.Recipient{}, repository.ErrInvoiceNotFound
	}
	return s.recipients[inv.ID], nil
}

func (s *Store) UpdateEscalationLevel(_ context.Context, id uuid.UUID, level int, relancedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpUpdateEscalationLevel); err != nil {
		return err
	}
	inv, ok := s.invoices[id]
	if !ok {
		return repository.ErrInvoiceNotFound
	}
	inv.EscalationLevel = level
	at := relancedAt
	inv.LastRelanceAt = &at
	inv.UpdatedAt = relancedAt
	s.invoices[id] = inv
	return nil
}

func (s *Store) ListEscalationCandidates(_ context.Context, asOf time.Time, limit int) ([]repository.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListEscalationCandidates); err != nil {
		return nil, err
	}

	var out []repository.Invoice
	for _, inv := range s.invoices {
		if !inv.Status.Open() || !inv.DueDate.Before(asOf) {
			continue
		}
		if domain.EscalationLevelFor(inv.DaysOverdue(asOf)) <= inv.EscalationLevel {
			continue
		}
		if !s.recipients[inv.ID].HasEmail() {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ repository.Store = (*Store)(nil)
