package domain

import "errors"

// PipelineStage is the sales-pipeline stage of an opportunity. It is unrelated
// to LifecycleStage.
type PipelineStage string

const (
	PipelineQualified   PipelineStage = "Qualified"
	PipelineProposal    PipelineStage = "Proposal"
	PipelineNegotiation PipelineStage = "Negotiation"
	PipelineWon         PipelineStage = "Won"
	PipelineLost        PipelineStage = "Lost"
)

// ContactRole is the part a contact plays on an opportunity.
type ContactRole string

const (
	RoleDecider     ContactRole = "Decider"
	RoleInfluencer  ContactRole = "Influencer"
	RoleUser        ContactRole = "User"
	RoleParticipant ContactRole = "Participant"
)

// AccountStatus is the commercial status of an account.
type AccountStatus string

const (
	AccountProspect AccountStatus = "Prospect"
	AccountActive   AccountStatus = "Active"
	AccountInactive AccountStatus = "Inactive"
	AccountArchived AccountStatus = "Archived"
)

// InteractionKind tags audit interactions.
type InteractionKind string

const (
	InteractionStageChange InteractionKind = "stage-change"
	InteractionConversion  InteractionKind = "conversion"
	InteractionDunning     InteractionKind = "dunning"
)

const (
	// ConversionProbabilityPercent is applied to freshly qualified opportunities.
	ConversionProbabilityPercent = 20
	// ConversionCloseWindowDays sets the expected close date after conversion.
	ConversionCloseWindowDays = 30
)

var ErrInvalidProbability = errors.New("probability must be between 0 and 100")

// WeightedValue returns estimate × probability / 100, or nil unless both are
// present. Values are in cents and rounded half away from zero.
func WeightedValue(estimateCents *int64, probabilityPercent *int) *int64 {
	if estimateCents == nil || probabilityPercent == nil {
		return nil
	}
	product := *estimateCents * int64(*probabilityPercent)
	weighted := product / 100
	if rem := product % 100; rem >= 50 {
		weighted++
	} else if rem <= -50 {
		weighted--
	}
	return &weighted
}

// ValidateProbability rejects values outside 0..100.
func ValidateProbability(p *int) error {
	if p != nil && (*p < 0 || *p > 100) {
		return ErrInvalidProbability
	}
	return nil
}

// OpportunityName builds the default name of a converted opportunity.
func OpportunityName(accountDisplayName, contactDisplayName string) string {
	return accountDisplayName + " - " + contactDisplayName
}
