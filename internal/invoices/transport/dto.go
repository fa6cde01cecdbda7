package transport

import (
	"time"

	"github.com/google/uuid"
)

type DunningPreviewResponse struct {
	InvoiceID       uuid.UUID  `json:"invoiceId"`
	InvoiceNumber   string     `json:"invoiceNumber"`
	Status          string     `json:"status"`
	DueDate         string     `json:"dueDate"`
	DaysOverdue     int        `json:"daysOverdue"`
	Overdue         bool       `json:"overdue"`
	EscalationLevel int        `json:"escalationLevel"`
	LevelLabel      string     `json:"levelLabel"`
	StoredLevel     int        `json:"storedLevel"`
	LastRelanceAt   *time.Time `json:"lastRelanceAt,omitempty"`
}

type RelanceResponse struct {
	InvoiceID       uuid.UUID `json:"invoiceId"`
	EscalationLevel int       `json:"escalationLevel"`
	PreviousLevel   int       `json:"previousLevel"`
	DaysOverdue     int       `json:"daysOverdue"`
	Channel         string    `json:"channel"`
	RelancedAt      time.Time `json:"relancedAt"`
	AuditRecorded   bool      `json:"auditRecorded"`
	AuditError      string    `json:"auditError,omitempty"`
}
