// Package pipeline holds the deal stage registry, the stage transition rules
// and the per-stage aggregation used by the board and the dashboard.
package pipeline

import (
	"strings"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

// StageInfo is one row of the registry.
type StageInfo struct {
	Key         models.DealStage `json:"key"`
	Label       string           `json:"label"`
	Probability int              `json:"probability"`
	Terminal    bool             `json:"terminal"`
}

// Board order. Next/Previous and the board columns follow it.
var registry = []StageInfo{
	{Key: models.StageQualification, Label: "Qualification", Probability: 20},
	{Key: models.StageProposal, Label: "Proposal", Probability: 50},
	{Key: models.StageNegotiation, Label: "Negotiation", Probability: 75},
	{Key: models.StageClosedWon, Label: "Closed Won", Probability: 100, Terminal: true},
	{Key: models.StageClosedLost, Label: "Closed Lost", Probability: 0, Terminal: true},
}

var byKey = func() map[models.DealStage]int {
	m := make(map[models.DealStage]int, len(registry))
	for i, s := range registry {
		m[s.Key] = i
	}
	return m
}()

// Stages returns a copy of the registry in board order.
func Stages() []StageInfo {
	out := make([]StageInfo, len(registry))
	copy(out, registry)
	return out
}

// AllStages returns the stage keys in board order.
func AllStages() []models.DealStage {
	out := make([]models.DealStage, len(registry))
	for i, s := range registry {
		out[i] = s.Key
	}
	return out
}

func Lookup(stage models.DealStage) (StageInfo, bool) {
	i, ok := byKey[stage]
	if !ok {
		return StageInfo{}, false
	}
	return registry[i], true
}

func IsKnown(stage models.DealStage) bool {
	_, ok := byKey[stage]
	return ok
}

// LabelOf returns the display label, or the raw key for an unknown stage.
func LabelOf(stage models.DealStage) string {
	if s, ok := Lookup(stage); ok {
		return s.Label
	}
	return string(stage)
}

// DefaultProbabilityOf returns the win probability a deal gets on entering stage.
// Unknown stages yield 0.
func DefaultProbabilityOf(stage models.DealStage) int {
	s, _ := Lookup(stage)
	return s.Probability
}

// IsTerminal is true exactly for closed_won and closed_lost.
func IsTerminal(stage models.DealStage) bool {
	s, ok := Lookup(stage)
	return ok && s.Terminal
}

// ParseStage normalises raw input into a registered stage.
func ParseStage(raw string) (models.DealStage, error) {
	stage := models.DealStage(strings.ToLower(strings.TrimSpace(raw)))
	if !IsKnown(stage) {
		return "", &InvalidStageError{Stage: raw}
	}
	return stage, nil
}

// Next is the stage a card moves to when pushed forward. Open stages move one
// column right; negotiation moves to closed_won. Terminal stages have no next.
func Next(stage models.DealStage) (models.DealStage, bool) {
	i, ok := byKey[stage]
	if !ok || registry[i].Terminal {
		return "", false
	}
	return registry[i+1].Key, true
}

// Previous is the stage a card moves back to. Both terminal stages reopen into
// negotiation; qualification has no previous.
func Previous(stage models.DealStage) (models.DealStage, bool) {
	i, ok := byKey[stage]
	if !ok || i == 0 {
		return "", false
	}
	if registry[i].Terminal {
		return models.StageNegotiation, true
	}
	return registry[i-1].Key, true
}
