package routing

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/inference-router/services"
	"github.com/upb/inference-router/services/providers"
)

func descriptor(name string, cost float64, latency int64) providers.Descriptor {
	return providers.Descriptor{Name: name, CostPerMillionUnits: cost, EstimatedLatencyMs: latency}
}

// economy is cheap and slow, premium is expensive and fast
var twoProviders = []providers.Descriptor{
	descriptor("economy", 0.02, 2500),
	descriptor("premium", 4.0, 800),
}

func fixedDraw(v float64) func() float64 {
	return func() float64 { return v }
}

func TestSelector_Select(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		draw     float64
		want     string
		role     Role
	}{
		{"cost optimized", StrategyCostOptimized, 0.99, "economy", RoleLowCost},
		{"latency optimized", StrategyLatencyOptimized, 0.01, "premium", RoleLowLatency},
		{"quality aliases latency", StrategyQualityOptimized, 0.01, "premium", RoleLowLatency},
		{"balanced low draw", StrategyBalanced, 0.1, "economy", RoleLowCost},
		{"balanced just below split", StrategyBalanced, 0.7999, "economy", RoleLowCost},
		{"balanced at split", StrategyBalanced, 0.8, "premium", RoleLowLatency},
		{"balanced high draw", StrategyBalanced, 0.95, "premium", RoleLowLatency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := NewSelector(fixedDraw(tt.draw)).Select(tt.strategy, twoProviders)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel.Provider.Name)
			assert.Equal(t, tt.role, sel.Role)
		})
	}
}

func TestSelector_SelectErrors(t *testing.T) {
	s := NewSelector(nil)

	_, err := s.Select(StrategyCostOptimized, nil)
	assert.True(t, errors.Is(err, services.ErrNoProviders))

	_, err = s.Select("fastest", twoProviders)
	assert.True(t, errors.Is(err, services.ErrUnknownStrategy))
}

func TestSelector_SingleProvider(t *testing.T) {
	only := []providers.Descriptor{descriptor("solo", 1, 100)}

	for _, strategy := range Strategies() {
		for _, draw := range []float64{0, 0.5, 0.99} {
			sel, err := NewSelector(fixedDraw(draw)).Select(strategy, only)
			require.NoError(t, err)
			assert.Equal(t, "solo", sel.Provider.Name)
		}
	}
}

func TestSelector_TiesBreakByName(t *testing.T) {
	descs := []providers.Descriptor{
		descriptor("zeta", 1, 100),
		descriptor("alpha", 1, 100),
		descriptor("mid", 1, 100),
	}

	s := NewSelector(nil)
	for _, strategy := range []Strategy{StrategyCostOptimized, StrategyLatencyOptimized} {
		sel, err := s.Select(strategy, descs)
		require.NoError(t, err)
		assert.Equal(t, "alpha", sel.Provider.Name)
	}
}

func TestSelector_BalancedDistribution(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1024))
	s := NewSelector(rng.Float64)

	const draws = 10_000
	lowCost := 0
	for i := 0; i < draws; i++ {
		sel, err := s.Select(StrategyBalanced, twoProviders)
		require.NoError(t, err)
		if sel.Provider.Name == "economy" {
			lowCost++
		}
	}

	share := float64(lowCost) / draws * 100
	assert.InDelta(t, 80.0, share, 3.0, "low-cost share %.2f%%", share)
}

func TestSelector_SelectFallback(t *testing.T) {
	three := []providers.Descriptor{
		descriptor("economy", 0.02, 2500),
		descriptor("premium", 4.0, 800),
		descriptor("standard", 0.5, 1200),
	}

	tests := []struct {
		name     string
		strategy Strategy
		primary  Selection
		descs    []providers.Descriptor
		want     string
		ok       bool
	}{
		{
			name:     "two providers cost",
			strategy: StrategyCostOptimized,
			primary:  Selection{Provider: twoProviders[0], Role: RoleLowCost},
			descs:    twoProviders,
			want:     "premium",
			ok:       true,
		},
		{
			name:     "two providers latency",
			strategy: StrategyLatencyOptimized,
			primary:  Selection{Provider: twoProviders[1], Role: RoleLowLatency},
			descs:    twoProviders,
			want:     "economy",
			ok:       true,
		},
		{
			name:     "next cheapest when cost optimized",
			strategy: StrategyCostOptimized,
			primary:  Selection{Provider: three[0], Role: RoleLowCost},
			descs:    three,
			want:     "standard",
			ok:       true,
		},
		{
			name:     "next fastest when latency optimized",
			strategy: StrategyLatencyOptimized,
			primary:  Selection{Provider: three[1], Role: RoleLowLatency},
			descs:    three,
			want:     "standard",
			ok:       true,
		},
		{
			name:     "balanced low-cost pick falls back to fastest remaining",
			strategy: StrategyBalanced,
			primary:  Selection{Provider: three[0], Role: RoleLowCost},
			descs:    three,
			want:     "premium",
			ok:       true,
		},
		{
			name:     "balanced low-latency pick falls back to cheapest remaining",
			strategy: StrategyBalanced,
			primary:  Selection{Provider: three[1], Role: RoleLowLatency},
			descs:    three,
			want:     "economy",
			ok:       true,
		},
		{
			name:     "single provider has no fallback",
			strategy: StrategyCostOptimized,
			primary:  Selection{Provider: twoProviders[0], Role: RoleLowCost},
			descs:    twoProviders[:1],
			ok:       false,
		},
	}

	s := NewSelector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, ok := s.SelectFallback(tt.strategy, tt.primary, tt.descs)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, fb.Provider.Name)
				assert.NotEqual(t, tt.primary.Provider.Name, fb.Provider.Name)
			}
		})
	}
}

func TestProperty_DeterministicSelection(t *testing.T) {
	properties := gopter.NewProperties(nil)

	registryGen := gen.SliceOfN(4, gen.Float64Range(0, 10)).FlatMap(func(v interface{}) gopter.Gen {
		costs := v.([]float64)
		return gen.SliceOfN(4, gen.Int64Range(1, 5000)).Map(func(latencies []int64) []providers.Descriptor {
			names := []string{"a", "b", "c", "d"}
			descs := make([]providers.Descriptor, len(names))
			for i, name := range names {
				descs[i] = descriptor(name, costs[i], latencies[i])
			}
			return descs
		})
	}, reflect.TypeOf([]providers.Descriptor{}))

	properties.Property("non-balanced strategies always pick the same provider", prop.ForAll(
		func(descs []providers.Descriptor, draw float64) bool {
			for _, strategy := range []Strategy{StrategyCostOptimized, StrategyLatencyOptimized, StrategyQualityOptimized} {
				first, err := NewSelector(nil).Select(strategy, descs)
				if err != nil {
					return false
				}
				again, err := NewSelector(fixedDraw(draw)).Select(strategy, descs)
				if err != nil || again.Provider.Name != first.Provider.Name {
					return false
				}
			}
			return true
		},
		registryGen,
		gen.Float64Range(0, 1),
	))

	properties.Property("cost optimized picks a minimum price", prop.ForAll(
		func(descs []providers.Descriptor) bool {
			sel, err := NewSelector(nil).Select(StrategyCostOptimized, descs)
			if err != nil {
				return false
			}
			for _, d := range descs {
				if d.CostPerMillionUnits < sel.Provider.CostPerMillionUnits {
					return false
				}
			}
			return true
		},
		registryGen,
	))

	properties.Property("fallback never repeats the primary", prop.ForAll(
		func(descs []providers.Descriptor, draw float64) bool {
			s := NewSelector(fixedDraw(draw))
			for _, strategy := range Strategies() {
				primary, err := s.Select(strategy, descs)
				if err != nil {
					return false
				}
				fb, ok := s.SelectFallback(strategy, primary, descs)
				if !ok || fb.Provider.Name == primary.Provider.Name {
					return false
				}
			}
			return true
		},
		registryGen,
		gen.Float64Range(0, 0.999),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
