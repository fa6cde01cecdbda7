// Package domain holds the pure dunning rules: overdue-day arithmetic,
// escalation levels and the outbound relance payload.
package domain

import (
	"strconv"
	"time"
)

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "Draft"
	InvoiceSent      InvoiceStatus = "Sent"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

// Open reports whether the invoice is still awaiting payment.
func (s InvoiceStatus) Open() bool {
	return s == InvoiceSent
}

// MaxEscalationLevel is the final-notice level.
const MaxEscalationLevel = 3

// DaysOverdue returns the whole days elapsed since due, truncated toward zero.
// It is positive once the due date has passed.
func DaysOverdue(now, due time.Time) int {
	return int(now.Sub(due).Hours() / 24)
}

// EscalationLevelFor maps overdue days to a level: 0 when not overdue,
// 1 for up to a week, 2 up to fifteen days, 3 beyond.
func EscalationLevelFor(daysOverdue int) int {
	switch {
	case daysOverdue <= 0:
		return 0
	case daysOverdue <= 7:
		return 1
	case daysOverdue <= 15:
		return 2
	default:
		return 3
	}
}

// LevelLabel is the wording used in relance subjects.
func LevelLabel(level int) string {
	switch level {
	case 1:
		return "Payment reminder"
	case 2:
		return "Second payment reminder"
	case 3:
		return "Final notice"
	default:
		return "Invoice"
	}
}

// RelancePayload is the body sent to the external relance workflow.
// Field names are part of the integration contract.
type RelancePayload struct {
	InvoiceID          string `json:"invoice_id"`
	InvoiceNumber      string `json:"invoice_number"`
	AmountExclTaxCents int64  `json:"amount_excl_tax"`
	AmountInclTaxCents int64  `json:"amount_incl_tax"`
	DueDate            string `json:"due_date"`
	DaysOverdue        int    `json:"days_overdue"`
	EscalationLevel    int    `json:"escalation_level"`
	AccountName        string `json:"account_name"`
	ContactName        string `json:"contact_name"`
	ContactEmail       string `json:"contact_email"`
}

// IdempotencyKey identifies one relance per invoice and level.
func (p RelancePayload) IdempotencyKey() string {
	return IdempotencyKey(p.InvoiceID, p.EscalationLevel)
}

// IdempotencyKey formats the dunning:<id>:<level> key shared by the webhook
// header and the scheduler task id.
func IdempotencyKey(invoiceID string, level int) string {
	return "dunning:" + invoiceID + ":" + strconv.Itoa(level)
}
