package service

import (
	"context"

	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"

	"github.com/google/uuid"
)

func (s *Service) writeInteraction(ctx context.Context, contactID uuid.UUID, accountID *uuid.UUID, kind domain.InteractionKind, summary string) error {
	_, err := s.repo.CreateInteraction(ctx, repository.CreateInteractionParams{
		SubjectContactID: &contactID,
		AccountID:        accountID,
		Kind:             kind,
		Summary:          summary,
	})
	return err
}
