package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

var hundred = decimal.NewFromInt(100)

// StageSummary is one board column's totals.
type StageSummary struct {
	Stage         models.DealStage `json:"stage"`
	Label         string           `json:"label"`
	Count         int              `json:"count"`
	Value         decimal.Decimal  `json:"value"`
	WeightedValue decimal.Decimal  `json:"weighted_value"`
}

// Aggregate is the result of AggregateByStage. Stages always holds every
// registered stage in board order, even when its count is zero.
type Aggregate struct {
	Stages             []StageSummary  `json:"stages"`
	TotalPipelineValue decimal.Decimal `json:"total_pipeline_value"`
	TotalWeightedValue decimal.Decimal `json:"total_weighted_value"`
	// deals whose stage is not registered; they are not part of any total
	Unrecognized int `json:"unrecognized"`
}

// Stage returns the summary for one stage.
func (a Aggregate) Stage(stage models.DealStage) (StageSummary, bool) {
	for _, s := range a.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageSummary{}, false
}

// WeightedValue is value * probability / 100.
func WeightedValue(d *models.Deal) decimal.Decimal {
	return d.Value.Mul(decimal.NewFromInt(int64(d.Probability))).Div(hundred)
}

// AggregateByStage groups deals by stage and sums value and weighted value.
// Terminal stages carry count and value but no weighted value, and are left
// out of both pipeline totals.
func AggregateByStage(deals []*models.Deal) Aggregate {
	agg := Aggregate{
		Stages:             make([]StageSummary, len(registry)),
		TotalPipelineValue: decimal.Zero,
		TotalWeightedValue: decimal.Zero,
	}
	for i, s := range registry {
		agg.Stages[i] = StageSummary{
			Stage:         s.Key,
			Label:         s.Label,
			Value:         decimal.Zero,
			WeightedValue: decimal.Zero,
		}
	}

	for _, d := range deals {
		if d == nil {
			continue
		}
		i, ok := byKey[d.Stage]
		if !ok {
			agg.Unrecognized++
			continue
		}
		col := &agg.Stages[i]
		col.Count++
		col.Value = col.Value.Add(d.Value)
		if registry[i].Terminal {
			continue
		}
		w := WeightedValue(d)
		col.WeightedValue = col.WeightedValue.Add(w)
		agg.TotalPipelineValue = agg.TotalPipelineValue.Add(d.Value)
		agg.TotalWeightedValue = agg.TotalWeightedValue.Add(w)
	}
	return agg
}

// Column is a board column: its summary plus the deals in it.
type Column struct {
	StageSummary
	Deals []*models.Deal `json:"deals"`
}

// Board lays deals out in registry order. Unknown stages are dropped.
func Board(deals []*models.Deal) []Column {
	agg := AggregateByStage(deals)
	cols := make([]Column, len(agg.Stages))
	for i, s := range agg.Stages {
		cols[i] = Column{StageSummary: s, Deals: []*models.Deal{}}
	}
	for _, d := range deals {
		if d == nil {
			continue
		}
		if i, ok := byKey[d.Stage]; ok {
			cols[i].Deals = append(cols[i].Deals, d)
		}
	}
	return cols
}
