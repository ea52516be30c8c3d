package routing

import (
	"fmt"

	"github.com/upb/inference-router/services"
	"github.com/upb/inference-router/services/providers"
	"github.com/upb/inference-router/services/usage"
)

// CostProjection is the monthly cost estimate for a unit volume
type CostProjection struct {
	MonthlyUnits   int64                `json:"monthly_units"`
	ActiveStrategy Strategy             `json:"active_strategy"`
	ProjectedCost  float64              `json:"projected_cost"`
	ByStrategy     map[Strategy]float64 `json:"by_strategy"`

	// BaselineCost serves every unit on the low-latency provider
	BaselineCost   float64 `json:"baseline_cost"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savings_percent"`
}

// ProjectedMonthlyCost estimates the monthly cost of units under strategy over descs
func ProjectedMonthlyCost(descs []providers.Descriptor, strategy Strategy, monthlyUnits int64) (float64, error) {
	if !strategy.Valid() {
		return 0, fmt.Errorf("%w: %q", services.ErrUnknownStrategy, strategy)
	}
	if monthlyUnits < 0 {
		return 0, services.ErrInvalidUnits
	}

	lowCost, ok := LowestCost(descs)
	if !ok {
		return 0, services.ErrNoProviders
	}
	lowLatency, _ := LowestLatency(descs)
	return usage.ProjectedMonthlyCost(strategy.Share(), monthlyUnits, lowCost, lowLatency), nil
}

// Project computes the cost of every strategy and the savings of active against the baseline
func Project(descs []providers.Descriptor, active Strategy, monthlyUnits int64) (CostProjection, error) {
	if !active.Valid() {
		return CostProjection{}, fmt.Errorf("%w: %q", services.ErrUnknownStrategy, active)
	}

	projection := CostProjection{
		MonthlyUnits:   monthlyUnits,
		ActiveStrategy: active,
		ByStrategy:     make(map[Strategy]float64, len(Strategies())),
	}

	for _, strategy := range Strategies() {
		cost, err := ProjectedMonthlyCost(descs, strategy, monthlyUnits)
		if err != nil {
			return CostProjection{}, err
		}
		projection.ByStrategy[strategy] = cost
	}

	projection.ProjectedCost = projection.ByStrategy[active]
	projection.BaselineCost = projection.ByStrategy[StrategyLatencyOptimized]
	projection.Savings = usage.RoundCost(projection.BaselineCost - projection.ProjectedCost)
	if projection.BaselineCost > 0 {
		projection.SavingsPercent = projection.Savings / projection.BaselineCost * 100
	}

	return projection, nil
}
