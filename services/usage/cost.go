package usage

import (
	"math"

	"github.com/upb/inference-router/services/providers"
)

const (
	// UnitsPerPrice is the number of units a descriptor price covers
	UnitsPerPrice = 1_000_000

	// costScale keeps costs at six decimal places
	costScale = 1_000_000
)

// RoundCost rounds a currency amount to six decimal places
func RoundCost(cost float64) float64 {
	return math.Round(cost*costScale) / costScale
}

// CostFor returns the cost of units on the given provider
func CostFor(units int64, desc providers.Descriptor) float64 {
	return RoundCost(float64(units) / UnitsPerPrice * desc.CostPerMillionUnits)
}

// toMicros converts a rounded cost into integer micro-currency
func toMicros(cost float64) int64 {
	return int64(math.Round(cost * costScale))
}

func fromMicros(micros int64) float64 {
	return float64(micros) / costScale
}

// Share is the fraction of traffic a strategy sends to each end of the price/latency tradeoff
type Share struct {
	LowCost    float64 `json:"low_cost"`
	LowLatency float64 `json:"low_latency"`
}

// ProjectedMonthlyCost replays a traffic share against static pricing
// It never looks at recorded history
func ProjectedMonthlyCost(share Share, monthlyUnits int64, lowCost, lowLatency providers.Descriptor) float64 {
	millions := float64(monthlyUnits) / UnitsPerPrice
	cost := millions*share.LowCost*lowCost.CostPerMillionUnits +
		millions*share.LowLatency*lowLatency.CostPerMillionUnits
	return RoundCost(cost)
}
