package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository/memory"
	"github.com/Niconord59/crm-axivity-sub001/platform/apperr"
	"github.com/Niconord59/crm-axivity-sub001/platform/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	svc     *Service
	bus     *events.InMemoryBus
	account repository.Account
	contact repository.Contact
}

func newFixture(t *testing.T, stage domain.LifecycleStage, status domain.AccountStatus) fixture {
	t.Helper()
	store := memory.New()
	store.SetClock(func() time.Time { return fixedNow })

	account := store.PutAccount(repository.Account{Name: "Acme", Status: status})
	contact := store.PutContact(repository.Contact{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		OwnerAccountID: &account.ID,
		LifecycleStage: &stage,
		CreatedAt:      fixedNow.Add(-72 * time.Hour),
	})

	bus := events.NewInMemoryBus(nil)
	svc := New(store, bus, nil)
	svc.SetClock(func() time.Time { return fixedNow })

	return fixture{store: store, svc: svc, bus: bus, account: account, contact: contact}
}

func stagePtr(s domain.LifecycleStage) *domain.LifecycleStage { return &s }

func (f fixture) storedStage(t *testing.T) domain.LifecycleStage {
	t.Helper()
	c, err := f.store.GetContact(context.Background(), f.contact.ID)
	require.NoError(t, err)
	require.NotNil(t, c.LifecycleStage)
	return *c.LifecycleStage
}

func TestUpdateStageRejectsDowngrade(t *testing.T) {
	f := newFixture(t, domain.StageCustomer, domain.AccountActive)

	_, err := f.svc.UpdateStage(context.Background(), UpdateStageParams{
		ContactID:    f.contact.ID,
		TargetStage:  domain.StageLead,
		CurrentStage: stagePtr(domain.StageCustomer),
	})

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, CodeDowngradeRejected))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, domain.StageCustomer, f.storedStage(t))
	assert.Zero(t, f.store.Calls(memory.OpUpdateContactStage))
}

func TestUpdateStageForcedDowngrade(t *testing.T) {
	f := newFixture(t, domain.StageCustomer, domain.AccountActive)

	result, err := f.svc.UpdateStage(context.Background(), UpdateStageParams{
		ContactID:      f.contact.ID,
		TargetStage:    domain.StageLead,
		CurrentStage:   stagePtr(domain.StageCustomer),
		ForceDowngrade: true,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StageLead, result.LifecycleStage)
	assert.Equal(t, domain.StageLead, f.storedStage(t))
	require.NotNil(t, result.LifecycleStageChangedAt)
	assert.True(t, result.LifecycleStageChangedAt.Equal(fixedNow))
}

func TestUpdateStageWritesAuditSummary(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)

	result, err := f.svc.UpdateStage(context.Background(), UpdateStageParams{
		ContactID:    f.contact.ID,
		TargetStage:  domain.StageMQL,
		CurrentStage: stagePtr(domain.StageLead),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Audit)
	assert.True(t, result.Audit.OK())

	interactions := f.store.Interactions()
	require.Len(t, interactions, 1)
	assert.Equal(t, domain.InteractionStageChange, interactions[0].Kind)
	assert.Equal(t, "Lead → Marketing Qualified Lead", interactions[0].Summary)
	require.NotNil(t, interactions[0].AccountID)
	assert.Equal(t, f.account.ID, *interactions[0].AccountID)
}

func TestUpdateStageAccountOverride(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)
	other := uuid.New()

	_, err := f.svc.UpdateStage(context.Background(), UpdateStageParams{
		ContactID:   f.contact.ID,
		TargetStage: domain.StageSQL,
		AccountID:   &other,
	})
	require.NoError(t, err)

	interactions := f.store.Interactions()
	require.Len(t, interactions, 1)
	assert.Equal(t, other, *interactions[0].AccountID)
	assert.Equal(t, "Lifecycle stage set to Sales Qualified Lead", interactions[0].Summary)
}

func TestUpdateStageSwallowsAuditFailure(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)
	f.store.FailOn(memory.OpCreateInteraction, errors.New("audit store down"))

	result, err := f.svc.UpdateStage(context.Background(), UpdateStageParams{
		ContactID:   f.contact.ID,
		TargetStage: domain.StageMQL,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Audit)
	assert.False(t, result.Audit.OK())
	assert.Equal(t, domain.StageMQL, f.storedStage(t))
}

func TestUpdateStageSkipAudit(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)

	result, err := f.svc.UpdateStage(context.Background(), UpdateStageParams{
		ContactID:   f.contact.ID,
		TargetStage: domain.StageMQL,
		SkipAudit:   true,
	})

	require.NoError(t, err)
	assert.Nil(t, result.Audit)
	assert.Zero(t, f.store.Calls(memory.OpCreateInteraction))
}

func TestUpdateStageUnknownContact(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)

	_, err := f.svc.UpdateStage(context.Background(), UpdateStageParams{
		ContactID:   uuid.New(),
		TargetStage: domain.StageMQL,
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateStagePublishesEvent(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)
	received := make(chan struct{}, 1)
	f.bus.Subscribe("lifecycle.contact.stage_changed", events.HandlerFunc(func(context.Context, events.Event) error {
		received <- struct{}{}
		return nil
	}))

	_, err := f.svc.UpdateStage(context.Background(), UpdateStageParams{ContactID: f.contact.ID, TargetStage: domain.StageMQL})
	require.NoError(t, err)
	f.bus.Wait()

	select {
	case <-received:
	default:
		t.Fatal("expected stage_changed event")
	}
}

func TestBulkUpdateStageEmptyShortCircuits(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)

	result, err := f.svc.BulkUpdateStage(context.Background(), nil, domain.StageMQL)

	require.NoError(t, err)
	assert.Equal(t, 0, result.UpdatedCount)
	assert.Zero(t, f.store.Calls(memory.OpBulkUpdateContactStage))
}

func TestBulkUpdateStageReportsMatchedIDs(t *testing.T) {
	f := newFixture(t, domain.StageCustomer, domain.AccountActive)
	missing := uuid.New()

	result, err := f.svc.BulkUpdateStage(context.Background(), []uuid.UUID{f.contact.ID, missing}, domain.StageLead)

	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedCount)
	assert.Equal(t, []uuid.UUID{f.contact.ID}, result.UpdatedIDs)
	assert.Equal(t, domain.StageLead, f.storedStage(t), "batch mode applies no downgrade protection")
	assert.Empty(t, f.store.Interactions(), "batch mode writes no audit records")
	assert.Equal(t, 1, f.store.Calls(memory.OpBulkUpdateContactStage))
}

func TestBulkUpdateStageRejectsUnknownStage(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)

	_, err := f.svc.BulkUpdateStage(context.Background(), []uuid.UUID{f.contact.ID}, domain.LifecycleStage("Prospect"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFunnelOverStore(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)
	for i := 0; i < 3; i++ {
		f.store.PutContact(repository.Contact{LifecycleStage: stagePtr(domain.StageLead)})
	}
	changed := fixedNow
	f.store.PutContact(repository.Contact{
		LifecycleStage:          stagePtr(domain.StageCustomer),
		CreatedAt:               fixedNow.Add(-12 * 24 * time.Hour),
		LifecycleStageChangedAt: &changed,
	})

	report, err := f.svc.Funnel(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, report.TotalContacts)
	assert.Equal(t, 80.0, report.Stage(domain.StageLead).Percentage)
	assert.Equal(t, 20.0, report.Stage(domain.StageCustomer).Percentage)
	require.NotNil(t, report.AvgLeadToCustomerDays)
	assert.Equal(t, 12, *report.AvgLeadToCustomerDays)
}

func TestGetOpportunityDerivesWeightedValue(t *testing.T) {
	f := newFixture(t, domain.StageSQL, domain.AccountProspect)
	estimate := int64(500_000)

	conv, err := f.svc.Convert(context.Background(), ConvertParams{
		ContactID:           f.contact.ID,
		AccountID:           f.account.ID,
		ContactDisplayName:  "Ada Lovelace",
		AccountDisplayName:  "Acme",
		EstimatedValueCents: &estimate,
	})
	require.NoError(t, err)

	detail, err := f.svc.GetOpportunity(context.Background(), conv.OpportunityID)
	require.NoError(t, err)
	require.NotNil(t, detail.WeightedValueCents)
	assert.Equal(t, int64(100_000), *detail.WeightedValueCents)
	assert.Len(t, detail.Contacts, 1)

	_, err = f.svc.GetOpportunity(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListContactsRejectsUnknownStageFilter(t *testing.T) {
	f := newFixture(t, domain.StageLead, domain.AccountActive)

	_, err := f.svc.ListContacts(context.Background(), repository.ContactFilter{Stages: []domain.LifecycleStage{"Nope"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	contacts, err := f.svc.ListContacts(context.Background(), repository.ContactFilter{AccountID: &f.account.ID})
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}
