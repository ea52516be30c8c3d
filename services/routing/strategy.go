package routing

import (
	"fmt"
	"strings"

	"github.com/upb/inference-router/services"
	"github.com/upb/inference-router/services/usage"
)

// Strategy defines how to select a provider
type Strategy string

const (
	// StrategyCostOptimized selects the provider with the lowest unit price
	StrategyCostOptimized Strategy = "cost_optimized"

	// StrategyLatencyOptimized selects the provider with the lowest estimated latency
	StrategyLatencyOptimized Strategy = "latency_optimized"

	// StrategyQualityOptimized is an alias of StrategyLatencyOptimized
	StrategyQualityOptimized Strategy = "quality_optimized"

	// StrategyBalanced sends 80% of traffic to the low-cost provider and 20% to the low-latency one
	StrategyBalanced Strategy = "balanced"
)

// BalancedLowCostShare is the fraction of balanced traffic sent to the low-cost provider
const BalancedLowCostShare = 0.8

// Strategies lists every known strategy
func Strategies() []Strategy {
	return []Strategy{
		StrategyCostOptimized,
		StrategyLatencyOptimized,
		StrategyQualityOptimized,
		StrategyBalanced,
	}
}

// ParseStrategy converts a string into a known strategy
func ParseStrategy(s string) (Strategy, error) {
	strategy := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if !strategy.Valid() {
		return "", fmt.Errorf("%w: %q", services.ErrUnknownStrategy, s)
	}
	return strategy, nil
}

// Valid reports whether s is a known strategy
func (s Strategy) Valid() bool {
	switch s {
	case StrategyCostOptimized, StrategyLatencyOptimized, StrategyQualityOptimized, StrategyBalanced:
		return true
	}
	return false
}

// Share returns the fraction of traffic this strategy sends to each side
func (s Strategy) Share() usage.Share {
	switch s {
	case StrategyCostOptimized:
		return usage.Share{LowCost: 1}
	case StrategyLatencyOptimized, StrategyQualityOptimized:
		return usage.Share{LowLatency: 1}
	case StrategyBalanced:
		return usage.Share{LowCost: BalancedLowCostShare, LowLatency: 1 - BalancedLowCostShare}
	}
	return usage.Share{}
}

func (s Strategy) String() string {
	return string(s)
}
