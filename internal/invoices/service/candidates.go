package service

import (
	"context"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
)

// Candidate is an invoice whose computed level is above the stored one.
type Candidate struct {
	InvoiceID     string
	InvoiceNumber string
	Level         int
	StoredLevel   int
}

// EscalationCandidates lists open invoices that are owed a higher relance
// than the last one sent.
func (s *Service) EscalationCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	now := s.now()
	invoices, err := s.repo.ListEscalationCandidates(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(invoices))
	for _, inv := range invoices {
		level := domain.EscalationLevelFor(inv.DaysOverdue(now))
		if level <= inv.EscalationLevel {
			continue
		}
		out = append(out, Candidate{
			InvoiceID:     inv.ID.String(),
			InvoiceNumber: inv.InvoiceNumber,
			Level:         level,
			StoredLevel:   inv.EscalationLevel,
		})
	}
	return out, nil
}
