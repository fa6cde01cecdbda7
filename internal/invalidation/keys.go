// Package invalidation tells UI processes which cached views a domain event
// made stale.
package invalidation

import (
	"github.com/Niconord59/crm-axivity-sub001/internal/events"
)

// Cache keys understood by the UI.
const (
	KeyContactsList            = "contacts:list"
	KeyLifecycleKPI            = "lifecycle:kpi"
	KeyInteractionsList        = "interactions:list"
	KeyAccountsList            = "accounts:list"
	KeyOpportunitiesList       = "opportunities:list"
	KeyOpportunityContactsList = "opportunity-contacts:list"
	KeyInvoicesList            = "invoices:list"
)

func contactDetail(id string) string { return "contacts:detail:" + id }
func accountDetail(id string) string { return "accounts:detail:" + id }
func invoiceDetail(id string) string { return "invoices:detail:" + id }

// KeysFor lists the cache keys an event invalidates. Unknown events yield nil.
func KeysFor(event events.Event) []string {
	switch e := event.(type) {
	case events.ContactStageChanged:
		return []string{
			KeyContactsList,
			contactDetail(e.ContactID.String()),
			KeyLifecycleKPI,
			KeyInteractionsList,
		}
	case events.ContactsStageBulkChanged:
		keys := []string{KeyContactsList, KeyLifecycleKPI}
		for _, id := range e.ContactIDs {
			keys = append(keys, contactDetail(id.String()))
		}
		return keys
	case events.ContactConverted:
		return []string{
			KeyContactsList,
			contactDetail(e.ContactID.String()),
			KeyLifecycleKPI,
			KeyInteractionsList,
			KeyAccountsList,
			accountDetail(e.AccountID.String()),
			KeyOpportunitiesList,
			KeyOpportunityContactsList,
		}
	case events.InvoiceRelanceSent:
		return []string{
			KeyInvoicesList,
			invoiceDetail(e.InvoiceID.String()),
			KeyInteractionsList,
		}
	default:
		return nil
	}
}

// EventNames is every event KeysFor understands.
func EventNames() []string {
	return []string{
		events.ContactStageChanged{}.EventName(),
		events.ContactsStageBulkChanged{}.EventName(),
		events.ContactConverted{}.EventName(),
		events.InvoiceRelanceSent{}.EventName(),
	}
}
