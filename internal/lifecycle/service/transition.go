package service

import (
	"context"
	"errors"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/events"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
	"github.com/Niconord59/crm-axivity-sub001/platform/apperr"
	"github.com/Niconord59/crm-axivity-sub001/platform/saga"

	"github.com/google/uuid"
)

// CodeDowngradeRejected marks a transition refused for going backwards.
const CodeDowngradeRejected = "downgrade_rejected"

const stepStageAudit = "stage_change_audit"

// UpdateStageParams describes a single stage change. CurrentStage is what the
// caller believes the contact is in; it is only used for the downgrade check.
type UpdateStageParams struct {
	ContactID      uuid.UUID
	TargetStage    domain.LifecycleStage
	CurrentStage   *domain.LifecycleStage
	ForceDowngrade bool
	// SkipAudit disables the stage-change interaction.
	SkipAudit bool
	AccountID *uuid.UUID
}

// StageChangeResult is the contact after the write. Audit is nil when no
// audit record was attempted.
type StageChangeResult struct {
	ID                      uuid.UUID
	LifecycleStage          domain.LifecycleStage
	LifecycleStageChangedAt *time.Time
	Audit                   *saga.Outcome
}

// UpdateStage changes the lifecycle stage of one contact.
func (s *Service) UpdateStage(ctx context.Context, params UpdateStageParams) (StageChangeResult, error) {
	if !params.TargetStage.Valid() {
		return StageChangeResult{}, apperr.Validation("invalid lifecycle stage").
			WithDetails(map[string]string{"targetStage": string(params.TargetStage)})
	}

	if !params.ForceDowngrade && domain.IsDowngrade(params.CurrentStage, params.TargetStage) {
		return StageChangeResult{}, apperr.Validation("stage change is a downgrade").
			WithCode(CodeDowngradeRejected).
			WithDetails(map[string]string{
				"currentStage": string(*params.CurrentStage),
				"targetStage":  string(params.TargetStage),
			})
	}

	change, err := s.repo.UpdateContactStage(ctx, params.ContactID, params.TargetStage)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return StageChangeResult{}, apperr.NotFound("contact not found")
		}
		return StageChangeResult{}, err
	}

	previous := ""
	if params.CurrentStage != nil {
		previous = string(*params.CurrentStage)
	}
	s.log.WithContext(ctx).StageTransition(change.ID.String(), previous, string(change.LifecycleStage))

	result := StageChangeResult{
		ID:                      change.ID,
		LifecycleStage:          change.LifecycleStage,
		LifecycleStageChangedAt: change.LifecycleStageChangedAt,
	}

	if !params.SkipAudit {
		accountID := params.AccountID
		if accountID == nil {
			accountID = change.OwnerAccountID
		}
		outcome := s.runner.Attempt(ctx, stepStageAudit, func(ctx context.Context) error {
			return s.writeInteraction(ctx, change.ID, accountID, domain.InteractionStageChange,
				stageChangeSummary(params.CurrentStage, change.LifecycleStage))
		})
		result.Audit = &outcome
	}

	s.publish(ctx, events.ContactStageChanged{
		BaseEvent:      events.NewBaseEvent(),
		ContactID:      change.ID,
		AccountID:      change.OwnerAccountID,
		PreviousStage:  previous,
		Stage:          string(change.LifecycleStage),
		StageChangedAt: change.LifecycleStageChangedAt,
		Forced:         params.ForceDowngrade,
	})

	return result, nil
}

// BulkStageResult lists the contacts a batch update actually matched.
type BulkStageResult struct {
	UpdatedCount int
	UpdatedIDs   []uuid.UUID
}

// BulkUpdateStage moves many contacts to stage in one store call. It applies
// no downgrade check and writes no audit records. Unknown ids are ignored.
func (s *Service) BulkUpdateStage(ctx context.Context, ids []uuid.UUID, stage domain.LifecycleStage) (BulkStageResult, error) {
	if len(ids) == 0 {
		return BulkStageResult{UpdatedCount: 0, UpdatedIDs: []uuid.UUID{}}, nil
	}
	if !stage.Valid() {
		return BulkStageResult{}, apperr.Validation("invalid lifecycle stage").
			WithDetails(map[string]string{"targetStage": string(stage)})
	}

	updated, err := s.repo.BulkUpdateContactStage(ctx, ids, stage)
	if err != nil {
		return BulkStageResult{}, err
	}

	if len(updated) > 0 {
		s.publish(ctx, events.ContactsStageBulkChanged{
			BaseEvent:  events.NewBaseEvent(),
			ContactIDs: updated,
			Stage:      string(stage),
		})
	}

	return BulkStageResult{UpdatedCount: len(updated), UpdatedIDs: updated}, nil
}

func stageChangeSummary(previous *domain.LifecycleStage, next domain.LifecycleStage) string {
	if previous == nil {
		return "Lifecycle stage set to " + next.Label()
	}
	return previous.Label() + " → " + next.Label()
}
