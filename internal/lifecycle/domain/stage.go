// Package domain holds the lifecycle stage model and the pure analytics that
// run over stage-tagged contacts. Nothing in here touches storage.
package domain

import (
	"errors"
	"strings"
)

// LifecycleStage is the funnel position of a contact.
type LifecycleStage string

const (
	StageLead        LifecycleStage = "Lead"
	StageMQL         LifecycleStage = "MQL"
	StageSQL         LifecycleStage = "SQL"
	StageOpportunity LifecycleStage = "Opportunity"
	StageCustomer    LifecycleStage = "Customer"
	StageEvangelist  LifecycleStage = "Evangelist"
	// StageChurned is terminal and sits outside the forward order.
	StageChurned LifecycleStage = "Churned"
)

var ErrUnknownStage = errors.New("unknown lifecycle stage")

// stageRanks is the single source of truth for ordering. Churned has no rank.
var stageRanks = map[LifecycleStage]int{
	StageLead:        0,
	StageMQL:         1,
	StageSQL:         2,
	StageOpportunity: 3,
	StageCustomer:    4,
	StageEvangelist:  5,
}

var stageLabels = map[LifecycleStage]string{
	StageLead:        "Lead",
	StageMQL:         "Marketing Qualified Lead",
	StageSQL:         "Sales Qualified Lead",
	StageOpportunity: "Opportunity",
	StageCustomer:    "Customer",
	StageEvangelist:  "Evangelist",
	StageChurned:     "Churned",
}

var forwardStages = []LifecycleStage{
	StageLead,
	StageMQL,
	StageSQL,
	StageOpportunity,
	StageCustomer,
	StageEvangelist,
}

// ForwardStages returns the ranked stages in order, Churned excluded.
func ForwardStages() []LifecycleStage {
	out := make([]LifecycleStage, len(forwardStages))
	copy(out, forwardStages)
	return out
}

// AllStages returns the forward stages followed by Churned.
func AllStages() []LifecycleStage {
	return append(ForwardStages(), StageChurned)
}

// ParseStage accepts a stage name case-insensitively.
func ParseStage(raw string) (LifecycleStage, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range AllStages() {
		if strings.EqualFold(string(s), trimmed) {
			return s, nil
		}
	}
	return "", ErrUnknownStage
}

// Valid reports whether s is a known stage.
func (s LifecycleStage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

// Rank returns the position in the forward order; ok is false for Churned.
func (s LifecycleStage) Rank() (int, bool) {
	r, ok := stageRanks[s]
	return r, ok
}

// Label returns the human-readable name.
func (s LifecycleStage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsDowngrade reports whether moving from current to target goes backwards.
// A nil current is never a downgrade, and neither is a move to Churned.
func IsDowngrade(current *LifecycleStage, target LifecycleStage) bool {
	if current == nil || target == StageChurned {
		return false
	}
	from, okFrom := stageRanks[*current]
	to, okTo := stageRanks[target]
	if !okFrom || !okTo {
		return false
	}
	return to < from
}

// NextStage returns the suggested successor of current, or nil when there is
// none. Churned is never suggested.
func NextStage(current *LifecycleStage) *LifecycleStage {
	if current == nil {
		next := StageLead
		return &next
	}
	rank, ok := stageRanks[*current]
	if !ok || rank+1 >= len(forwardStages) {
		return nil
	}
	next := forwardStages[rank+1]
	return &next
}

// StageOption describes one stage for pickers.
type StageOption struct {
	Stage    LifecycleStage  `json:"stage"`
	Label    string          `json:"label"`
	Rank     *int            `json:"rank"`
	Next     *LifecycleStage `json:"next"`
	Terminal bool            `json:"terminal"`
}

// StageOptions lists every stage with its rank and suggested successor.
func StageOptions() []StageOption {
	stages := AllStages()
	options := make([]StageOption, 0, len(stages))
	for _, s := range stages {
		stage := s
		opt := StageOption{
			Stage:    stage,
			Label:    stage.Label(),
			Next:     NextStage(&stage),
			Terminal: stage == StageChurned,
		}
		if r, ok := stage.Rank(); ok {
			opt.Rank = &r
		}
		options = append(options, opt)
	}
	return options
}
