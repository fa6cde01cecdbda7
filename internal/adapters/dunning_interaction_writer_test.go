package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
	invoicerepo "github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository"
	invoicemem "github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository/memory"
	invoicesvc "github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"
	lifecycledomain "github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	lifecyclerepo "github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
	lifecyclemem "github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okDispatcher struct{}

func (okDispatcher) Dispatch(context.Context, domain.RelancePayload) error { return nil }
func (okDispatcher) Channel() string                                       { return "webhook" }

func TestRelanceWritesDunningInteraction(t *testing.T) {
	now := time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)

	lifecycle := lifecyclemem.New()
	account := lifecycle.PutAccount(lifecyclerepo.Account{Name: "Acme", Status: lifecycledomain.AccountActive})
	email := "jane@acme.test"
	contact := lifecycle.PutContact(lifecyclerepo.Contact{FirstName: "Jane", LastName: "Doe", Email: &email, OwnerAccountID: &account.ID})

	invoices := invoicemem.New()
	inv := invoices.PutInvoice(invoicerepo.Invoice{
		InvoiceNumber: "FAC-2024-042",
		AccountID:     account.ID,
		ContactID:     &contact.ID,
		DueDate:       time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	})
	invoices.PutRecipient(inv.ID, invoicerepo.Recipient{AccountName: "Acme", ContactID: &contact.ID, ContactName: "Jane Doe", ContactEmail: &email})

	svc := invoicesvc.New(invoices, okDispatcher{}, nil, nil)
	svc.SetClock(func() time.Time { return now })
	svc.SetAuditWriter(NewDunningInteractionWriter(lifecycle))

	result, err := svc.Relance(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EscalationLevel)

	interactions := lifecycle.Interactions()
	require.Len(t, interactions, 1)
	assert.Equal(t, lifecycledomain.InteractionDunning, interactions[0].Kind)
	require.NotNil(t, interactions[0].SubjectContactID)
	assert.Equal(t, contact.ID, *interactions[0].SubjectContactID)
	require.NotNil(t, interactions[0].AccountID)
	assert.Equal(t, account.ID, *interactions[0].AccountID)
	assert.NotEqual(t, uuid.Nil, interactions[0].ID)
}
