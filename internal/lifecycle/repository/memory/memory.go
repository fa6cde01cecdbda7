// Package memory is an in-process implementation of the lifecycle store.
// It has no transactions, so a failed conversion leaves earlier writes in
// place. Each operation can be made to fail and is counted.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"

	"github.com/google/uuid"
)

// Operation names accepted by FailOn and Calls.
const (
	OpGetContact               = "GetContact"
	OpListContacts             = "ListContacts"
	OpListStageSnapshots       = "ListStageSnapshots"
	OpUpdateContactStage       = "UpdateContactStage"
	OpBulkUpdateContactStage   = "BulkUpdateContactStage"
	OpGetAccount               = "GetAccount"
	OpUpdateAccountStatus      = "UpdateAccountStatus"
	OpCreateOpportunity        = "CreateOpportunity"
	OpCreateOpportunityContact = "CreateOpportunityContact"
	OpGetOpportunity           = "GetOpportunity"
	OpListOpportunityContacts  = "ListOpportunityContacts"
	OpCreateInteraction        = "CreateInteraction"
	OpListInteractions         = "ListInteractions"
)

// Store keeps every entity in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	now func() time.Time

	contacts      map[uuid.UUID]repository.Contact
	accounts      map[uuid.UUID]repository.Account
	opportunities map[uuid.UUID]repository.Opportunity
	links         []repository.OpportunityContact
	interactions  []repository.Interaction

	failures map[string]error
	calls    map[string]int
}

// New creates an empty store using the wall clock.
func New() *Store {
	return &Store{
		now:           time.Now,
		contacts:      make(map[uuid.UUID]repository.Contact),
		accounts:      make(map[uuid.UUID]repository.Account),
		opportunities: make(map[uuid.UUID]repository.Opportunity),
		failures:      make(map[string]error),
		calls:         make(map[string]int),
	}
}

// SetClock replaces the clock used to stamp writes.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
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

// PutContact inserts or replaces a contact as-is.
func (s *Store) PutContact(c repository.Contact) repository.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.contacts[c.ID] = c
	return c
}

// PutAccount inserts or replaces an account as-is.
func (s *Store) PutAccount(a repository.Account) repository.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.accounts[a.ID] = a
	return a
}

// Opportunities returns every stored opportunity.
func (s *Store) Opportunities() []repository.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Opportunity, 0, len(s.opportunities))
	for _, o := range s.opportunities {
		out = append(out, o)
	}
	return out
}

// OpportunityContacts returns every stored link.
func (s *Store) OpportunityContacts() []repository.OpportunityContact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.OpportunityContact(nil), s.links...)
}

// Interactions returns the whole audit trail in insertion order.
func (s *Store) Interactions() []repository.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.Interaction(nil), s.interactions...)
}

// enter records the call and returns the injected failure, if any.
// Callers must hold s.mu.
func (s *Store) enter(op string) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Store) GetContact(_ context.Context, id uuid.UUID) (repository.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetContact); err != nil {
		return repository.Contact{}, err
	}
	c, ok := s.contacts[id]
	if !ok {
		return repository.Contact{}, repository.ErrContactNotFound
	}
	return c, nil
}

func (s *Store) ListContacts(_ context.Context, filter repository.ContactFilter) ([]repository.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListContacts); err != nil {
		return nil, err
	}

	stages := make(map[domain.LifecycleStage]bool, len(filter.Stages))
	for _, st := range filter.Stages {
		stages[st] = true
	}

	out := make([]repository.Contact, 0)
	for _, c := range s.contacts {
		if len(stages) > 0 && (c.LifecycleStage == nil || !stages[*c.LifecycleStage]) {
			continue
		}
		if filter.AccountID != nil && (c.OwnerAccountID == nil || *c.OwnerAccountID != *filter.AccountID) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListStageSnapshots(_ context.Context) ([]domain.ContactSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListStageSnapshots); err != nil {
		return nil, err
	}

	out := make([]domain.ContactSnapshot, 0, len(s.contacts))
	for _, c := range s.contacts {
		snap := domain.ContactSnapshot{CreatedAt: c.CreatedAt, StageChangedAt: c.LifecycleStageChangedAt}
		if c.LifecycleStage != nil {
			snap.Stage = *c.LifecycleStage
		}
		out = append(out, snap)
	}
	return out, nil
}

// setStage must be called with s.mu held.
func (s *Store) setStage(c repository.Contact, stage domain.LifecycleStage) repository.Contact {
	now := s.now()
	if c.LifecycleStage == nil || *c.LifecycleStage != stage {
		c.LifecycleStageChangedAt = &now
	}
	c.LifecycleStage = &stage
	c.UpdatedAt = now
	s.contacts[c.ID] = c
	return c
}

func (s *Store) UpdateContactStage(_ context.Context, id uuid.UUID, stage domain.LifecycleStage) (repository.StageChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpUpdateContactStage); err != nil {
		return repository.StageChange{}, err
	}
	c, ok := s.contacts[id]
	if !ok {
		return repository.StageChange{}, repository.ErrContactNotFound
	}
	c = s.setStage(c, stage)
	return repository.StageChange{
		ID:                      c.ID,
		OwnerAccountID:          c.OwnerAccountID,
		LifecycleStage:          *c.LifecycleStage,
		LifecycleStageChangedAt: c.LifecycleStageChangedAt,
	}, nil
}

func (s *Store) BulkUpdateContactStage(_ context.Context, ids []uuid.UUID, stage domain.LifecycleStage) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpBulkUpdateContactStage); err != nil {
		return nil, err
	}
	updated := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		c, ok := s.contacts[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		s.setStage(c, stage)
		updated = append(updated, id)
	}
	return updated, nil
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetAccount); err != nil {
		return repository.Account{}, err
	}
	a, ok := s.accounts[id]
	if !ok {
		return repository.Account{}, repository.ErrAccountNotFound
	}
	return a, nil
}

func (s *Store) UpdateAccountStatus(_ context.Context, id uuid.UUID, status domain.AccountStatus) (repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpUpdateAccountStatus); err != nil {
		return repository.Account{}, err
	}
	a, ok := s.accounts[id]
	if !ok {
		return repository.Account{}, repository.ErrAccountNotFound
	}
	a.Status = status
	a.UpdatedAt = s.now()
	s.accounts[id] = a
	return a, nil
}

func (s *Store) CreateOpportunity(_ context.Context, params repository.CreateOpportunityParams) (repository.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateOpportunity); err != nil {
		return repository.Opportunity{}, err
	}
	now := s.now()
	o := repository.Opportunity{
		ID:                  uuid.New(),
		Name:                params.Name,
		AccountID:           params.AccountID,
		Stage:               params.Stage,
		EstimatedValueCents: params.EstimatedValueCents,
		ProbabilityPercent:  params.ProbabilityPercent,
		ExpectedCloseDate:   params.ExpectedCloseDate,
		PrimaryContactID:    params.PrimaryContactID,
		Notes:               params.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.opportunities[o.ID] = o
	return o, nil
}

func (s *Store) CreateOpportunityContact(_ context.Context, params repository.CreateOpportunityContactParams) (repository.OpportunityContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateOpportunityContact); err != nil {
		return repository.OpportunityContact{}, err
	}
	role := params.Role
	if role == "" {
		role = domain.RoleParticipant
	}
	link := repository.OpportunityContact{
		ID:            uuid.New(),
		OpportunityID: params.OpportunityID,
		ContactID:     params.ContactID,
		Role:          role,
		IsPrimary:     params.IsPrimary,
		CreatedAt:     s.now(),
	}
	s.links = append(s.links, link)
	return link, nil
}

func (s *Store) GetOpportunity(_ context.Context, id uuid.UUID) (repository.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetOpportunity); err != nil {
		return repository.Opportunity{}, err
	}
	o, ok := s.opportunities[id]
	if !ok {
		return repository.Opportunity{}, repository.ErrOpportunityNotFound
	}
	return o, nil
}

func (s *Store) ListOpportunityContacts(_ context.Context, opportunityID uuid.UUID) ([]repository.OpportunityContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListOpportunityContacts); err != nil {
		return nil, err
	}
	out := make([]repository.OpportunityContact, 0)
	for _, link := range s.links {
		if link.OpportunityID == opportunityID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (s *Store) CreateInteraction(_ context.Context, params repository.CreateInteractionParams) (repository.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateInteraction); err != nil {
		return repository.Interaction{}, err
	}
	i := repository.Interaction{
		ID:               uuid.New(),
		SubjectContactID: params.SubjectContactID,
		AccountID:        params.AccountID,
		Kind:             params.Kind,
		Summary:          params.Summary,
		OccurredAt:       s.now(),
	}
	s.interactions = append(s.interactions, i)
	return i, nil
}

func (s *Store) ListInteractions(_ context.Context, contactID uuid.UUID) ([]repository.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListInteractions); err != nil {
		return nil, err
	}
	out := make([]repository.Interaction, 0)
	for i := len(s.interactions) - 1; i >= 0; i-- {
		it := s.interactions[i]
		if it.SubjectContactID != nil && *it.SubjectContactID == contactID {
			out = append(out, it)
		}
	}
	return out, nil
}

var _ repository.Store = (*Store)(nil)
