package routing

import (
	"fmt"
	"math/rand/v2"

	"github.com/upb/inference-router/services"
	"github.com/upb/inference-router/services/providers"
)

// Role is the side of the price/latency tradeoff a pick came from
type Role string

const (
	RoleLowCost    Role = "low_cost"
	RoleLowLatency Role = "low_latency"
)

// Selection is the outcome of one strategy decision
type Selection struct {
	Provider providers.Descriptor
	Role     Role
}

// Selector picks providers by strategy
// Draw returns a value in [0,1) and is only consulted by the balanced strategy
type Selector struct {
	Draw func() float64
}

// NewSelector creates a selector; a nil draw uses math/rand/v2
func NewSelector(draw func() float64) *Selector {
	if draw == nil {
		draw = rand.Float64
	}
	return &Selector{Draw: draw}
}

// Select picks the primary provider for a request
func (s *Selector) Select(strategy Strategy, descs []providers.Descriptor) (Selection, error) {
	if len(descs) == 0 {
		return Selection{}, services.ErrNoProviders
	}

	role, err := s.roleFor(strategy)
	if err != nil {
		return Selection{}, err
	}

	desc, _ := pick(role, descs, "")
	return Selection{Provider: desc, Role: role}, nil
}

// SelectFallback picks the provider to try after primary failed
// It reports false when no other provider exists
func (s *Selector) SelectFallback(strategy Strategy, primary Selection, descs []providers.Descriptor) (Selection, bool) {
	role := primary.Role
	if strategy == StrategyBalanced {
		role = complement(role)
	}

	desc, ok := pick(role, descs, primary.Provider.Name)
	if !ok {
		return Selection{}, false
	}
	return Selection{Provider: desc, Role: role}, true
}

func (s *Selector) roleFor(strategy Strategy) (Role, error) {
	switch strategy {
	case StrategyCostOptimized:
		return RoleLowCost, nil
	case StrategyLatencyOptimized, StrategyQualityOptimized:
		return RoleLowLatency, nil
	case StrategyBalanced:
		if s.Draw() < BalancedLowCostShare {
			return RoleLowCost, nil
		}
		return RoleLowLatency, nil
	default:
		return "", fmt.Errorf("%w: %q", services.ErrUnknownStrategy, strategy)
	}
}

func complement(role Role) Role {
	if role == RoleLowCost {
		return RoleLowLatency
	}
	return RoleLowCost
}

// LowestCost returns the cheapest provider, ties broken by name
func LowestCost(descs []providers.Descriptor) (providers.Descriptor, bool) {
	return pick(RoleLowCost, descs, "")
}

// LowestLatency returns the fastest provider, ties broken by name
func LowestLatency(descs []providers.Descriptor) (providers.Descriptor, bool) {
	return pick(RoleLowLatency, descs, "")
}

func pick(role Role, descs []providers.Descriptor, exclude string) (providers.Descriptor, bool) {
	var best providers.Descriptor
	found := false

	for _, d := range descs {
		if d.Name == exclude {
			continue
		}
		if !found || better(role, d, best) {
			best = d
			found = true
		}
	}

	return best, found
}

func better(role Role, a, b providers.Descriptor) bool {
	switch role {
	case RoleLowCost:
		if a.CostPerMillionUnits != b.CostPerMillionUnits {
			return a.CostPerMillionUnits < b.CostPerMillionUnits
		}
	case RoleLowLatency:
		if a.EstimatedLatencyMs != b.EstimatedLatencyMs {
			return a.EstimatedLatencyMs < b.EstimatedLatencyMs
		}
	}
	return a.Name < b.Name
}
