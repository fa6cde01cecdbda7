package transport

import (
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"
)

const dateLayout = "2006-01-02"

func ToDunningPreviewResponse(p service.Preview) DunningPreviewResponse {
	return DunningPreviewResponse{
		InvoiceID:       p.InvoiceID,
		InvoiceNumber:   p.InvoiceNumber,
		Status:          string(p.Status),
		DueDate:         p.DueDate.Format(dateLayout),
		DaysOverdue:     p.DaysOverdue,
		Overdue:         p.Overdue,
		EscalationLevel: p.EscalationLevel,
		LevelLabel:      domain.LevelLabel(p.EscalationLevel),
		StoredLevel:     p.StoredLevel,
		LastRelanceAt:   p.LastRelanceAt,
	}
}

func ToRelanceResponse(r service.RelanceResult) RelanceResponse {
	resp := RelanceResponse{
		InvoiceID:       r.InvoiceID,
		EscalationLevel: r.EscalationLevel,
		PreviousLevel:   r.PreviousLevel,
		DaysOverdue:     r.DaysOverdue,
		Channel:         r.Channel,
		RelancedAt:      r.RelancedAt,
		AuditRecorded:   r.Audit.OK(),
	}
	if r.Audit.Err != nil {
		resp.AuditError = r.Audit.Err.Error()
	}
	return resp
}
