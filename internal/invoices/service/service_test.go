package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository/memory"
	"github.com/Niconord59/crm-axivity-sub001/platform/apperr"
	"github.com/Niconord59/crm-axivity-sub001/platform/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -n)
}

type fakeDispatcher struct {
	mu       sync.Mutex
	err      error
	payloads []domain.RelancePayload
}

func (d *fakeDispatcher) Dispatch(_ context.Context, p domain.RelancePayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, p)
	return d.err
}

func (d *fakeDispatcher) Channel() string { return "webhook" }

type fakeAudit struct {
	err     error
	records []DunningAuditParams
}

func (a *fakeAudit) RecordDunning(_ context.Context, p DunningAuditParams) error {
	a.records = append(a.records, p)
	return a.err
}

type fixture struct {
	store      *memory.Store
	dispatcher *fakeDispatcher
	audit      *fakeAudit
	svc        *Service
	invoice    repository.Invoice
	contactID  uuid.UUID
}

func newFixture(t *testing.T, due time.Time, email string) fixture {
	t.Helper()
	store := memory.New()
	inv := store.PutInvoice(repository.Invoice{
		InvoiceNumber:      "FAC-2024-042",
		AccountID:          uuid.New(),
		DueDate:            due,
		AmountExclTaxCents: 100000,
		AmountInclTaxCents: 120000,
		AmountDueCents:     120000,
	})
	contactID := uuid.New()
	rec := repository.Recipient{AccountName: "Acme", ContactID: &contactID, ContactName: "Jane Doe"}
	if email != "" {
		rec.ContactEmail = &email
	}
	store.PutRecipient(inv.ID, rec)

	dispatcher := &fakeDispatcher{}
	audit := &fakeAudit{}
	svc := New(store, dispatcher, nil, nil)
	svc.SetAuditWriter(audit)
	svc.SetClock(func() time.Time { return fixedNow })

	return fixture{store: store, dispatcher: dispatcher, audit: audit, svc: svc, invoice: inv, contactID: contactID}
}

func (f fixture) storedLevel(t *testing.T) int {
	t.Helper()
	inv, ok := f.store.Invoice(f.invoice.ID)
	require.True(t, ok)
	return inv.EscalationLevel
}

func TestRelanceFourteenDaysOverdue(t *testing.T) {
	f := newFixture(t, daysAgo(14), "jane@acme.test")

	result, err := f.svc.Relance(context.Background(), f.invoice.ID)
	require.NoError(t, err)

	require.Len(t, f.dispatcher.payloads, 1)
	payload := f.dispatcher.payloads[0]
	assert.Equal(t, 2, payload.EscalationLevel)
	assert.Equal(t, 14, payload.DaysOverdue)
	assert.Equal(t, "jane@acme.test", payload.ContactEmail)
	assert.Equal(t, "Acme", payload.AccountName)
	assert.Equal(t, "2024-04-30", payload.DueDate)
	assert.EqualValues(t, 120000, payload.AmountInclTaxCents)

	assert.Equal(t, 2, result.EscalationLevel)
	assert.Equal(t, 0, result.PreviousLevel)
	assert.Equal(t, "webhook", result.Channel)
	assert.True(t, result.Audit.OK())
	assert.Equal(t, 2, f.storedLevel(t))

	require.Len(t, f.audit.records, 1)
	assert.Equal(t, f.invoice.AccountID, f.audit.records[0].AccountID)
	assert.Equal(t, &f.contactID, f.audit.records[0].ContactID)
	assert.Contains(t, f.audit.records[0].Summary, "FAC-2024-042")
}

func TestRelanceDispatchFailureKeepsLevel(t *testing.T) {
	f := newFixture(t, daysAgo(14), "jane@acme.test")
	f.dispatcher.err = errors.New("connection refused")

	_, err := f.svc.Relance(context.Background(), f.invoice.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindDispatch))
	assert.True(t, apperr.IsCode(err, CodeDispatchFailed))

	assert.Equal(t, 0, f.storedLevel(t))
	assert.Equal(t, 0, f.store.Calls(memory.OpUpdateEscalationLevel))
	assert.Empty(t, f.audit.records)
}

func TestRelanceNotOverdue(t *testing.T) {
	for _, due := range []time.Time{daysAgo(0), daysAgo(-3)} {
		f := newFixture(t, due, "jane@acme.test")

		_, err := f.svc.Relance(context.Background(), f.invoice.ID)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindPrecondition))
		assert.True(t, apperr.IsCode(err, CodeNotOverdue))
		assert.Empty(t, f.dispatcher.payloads)
	}
}

func TestRelanceMissingRecipient(t *testing.T) {
	f := newFixture(t, daysAgo(5), "")

	_, err := f.svc.Relance(context.Background(), f.invoice.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, CodeMissingRecipient))
	assert.Empty(t, f.dispatcher.payloads)
}

func TestRelancePaidInvoice(t *testing.T) {
	f := newFixture(t, daysAgo(20), "jane@acme.test")
	inv := f.invoice
	inv.Status = domain.InvoicePaid
	f.store.PutInvoice(inv)

	_, err := f.svc.Relance(context.Background(), f.invoice.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, CodeInvoiceClosed))
	assert.Empty(t, f.dispatcher.payloads)
}

func TestRelanceUnknownInvoice(t *testing.T) {
	f := newFixture(t, daysAgo(5), "jane@acme.test")

	_, err := f.svc.Relance(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRelanceAuditFailureSwallowed(t *testing.T) {
	f := newFixture(t, daysAgo(20), "jane@acme.test")
	f.audit.err = errors.New("interactions table locked")

	result, err := f.svc.Relance(context.Background(), f.invoice.ID)
	require.NoError(t, err)
	assert.False(t, result.Audit.OK())
	assert.Equal(t, 3, f.storedLevel(t))
}

func TestRelanceWithoutDispatcher(t *testing.T) {
	f := newFixture(t, daysAgo(5), "jane@acme.test")
	f.svc.dispatcher = nil

	_, err := f.svc.Relance(context.Background(), f.invoice.ID)
	assert.True(t, apperr.Is(err, apperr.KindDispatch))
	assert.Equal(t, 0, f.storedLevel(t))
}

func TestRelancePublishesEvent(t *testing.T) {
	f := newFixture(t, daysAgo(10), "jane@acme.test")
	bus := events.NewInMemoryBus(nil)
	f.svc.bus = bus

	received := make(chan events.Event, 1)
	bus.Subscribe("invoices.invoice.relance_sent", events.HandlerFunc(func(_ context.Context, e events.Event) error {
		received <- e
		return nil
	}))

	_, err := f.svc.Relance(context.Background(), f.invoice.ID)
	require.NoError(t, err)
	bus.Wait()

	select {
	case e := <-received:
		assert.Equal(t, "invoices.invoice.relance_sent", e.EventName())
	default:
		t.Fatal("expected relance event")
	}
}

func TestPreviewHasNoSideEffects(t *testing.T) {
	f := newFixture(t, daysAgo(10), "jane@acme.test")

	p, err := f.svc.Preview(context.Background(), f.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.DaysOverdue)
	assert.Equal(t, 2, p.EscalationLevel)
	assert.Equal(t, 0, p.StoredLevel)
	assert.True(t, p.Overdue)

	assert.Empty(t, f.dispatcher.payloads)
	assert.Equal(t, 0, f.store.Calls(memory.OpUpdateEscalationLevel))
}

func putReachable(store *memory.Store, inv repository.Invoice) repository.Invoice {
	inv = store.PutInvoice(inv)
	email := "billing@" + inv.InvoiceNumber + ".test"
	store.PutRecipient(inv.ID, repository.Recipient{AccountName: "Acme", ContactEmail: &email})
	return inv
}

func TestEscalationCandidates(t *testing.T) {
	f := newFixture(t, daysAgo(20), "jane@acme.test")
	putReachable(f.store, repository.Invoice{InvoiceNumber: "FAC-1", DueDate: daysAgo(5), EscalationLevel: 1})
	putReachable(f.store, repository.Invoice{InvoiceNumber: "FAC-2", DueDate: daysAgo(9), EscalationLevel: 1})
	putReachable(f.store, repository.Invoice{InvoiceNumber: "FAC-3", DueDate: daysAgo(2)})
	putReachable(f.store, repository.Invoice{InvoiceNumber: "FAC-4", DueDate: daysAgo(30), Status: domain.InvoicePaid})

	got, err := f.svc.EscalationCandidates(context.Background(), 0)
	require.NoError(t, err)

	numbers := make([]string, 0, len(got))
	for _, c := range got {
		numbers = append(numbers, c.InvoiceNumber)
	}
	assert.Equal(t, []string{"FAC-2024-042", "FAC-2", "FAC-3"}, numbers)
	assert.Equal(t, 3, got[0].Level)
	assert.Equal(t, 2, got[1].Level)
	assert.Equal(t, 1, got[1].StoredLevel)
}

func TestEscalationCandidatesLimitSkipsSettledInvoices(t *testing.T) {
	f := newFixture(t, daysAgo(1), "jane@acme.test")
	putReachable(f.store, repository.Invoice{InvoiceNumber: "FAC-OLD-1", DueDate: daysAgo(6), EscalationLevel: 1})
	putReachable(f.store, repository.Invoice{InvoiceNumber: "FAC-OLD-2", DueDate: daysAgo(4), EscalationLevel: 1})
	f.store.PutInvoice(repository.Invoice{InvoiceNumber: "FAC-NO-EMAIL", DueDate: daysAgo(12)})

	got, err := f.svc.EscalationCandidates(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "FAC-2024-042", got[0].InvoiceNumber)
	assert.Equal(t, 1, got[0].Level)
	assert.Equal(t, 0, got[0].StoredLevel)
}
