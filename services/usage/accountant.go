// Package usage keeps in-memory request, cost and fallback accounting for the router
package usage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/upb/inference-router/services/providers"
	"go.uber.org/zap"
)

// Statistics is a point-in-time copy of the accountant state
type Statistics struct {
	TotalRequests    int64            `json:"total_requests"`
	PerProviderCount map[string]int64 `json:"per_provider_count"`
	FallbackCount    int64            `json:"fallback_count"`
	FailedRequests   int64            `json:"failed_requests"`
	CumulativeCost   float64          `json:"cumulative_cost"`
	TotalUnits       int64            `json:"total_units"`

	// Derived
	ProviderShare    map[string]float64 `json:"provider_share"`
	FallbackRate     float64            `json:"fallback_rate"`
	AverageLatencyMs map[string]int64   `json:"average_latency_ms"`
	EstimatedSavings float64            `json:"estimated_savings"`

	Since     time.Time `json:"since"`
	Timestamp time.Time `json:"timestamp"`
}

// SavingsAgainst returns what serving every recorded unit on premium would have cost
// beyond the actual cumulative cost
func (s Statistics) SavingsAgainst(premium providers.Descriptor) float64 {
	return RoundCost(CostFor(s.TotalUnits, premium) - s.CumulativeCost)
}

// Accountant aggregates usage across concurrent routes
// Counters are atomics; mu is held for writing whenever a counter and
// perProvider change together so a snapshot never sees one without the other
type Accountant struct {
	totalRequests  atomic.Int64
	fallbackCount  atomic.Int64
	failedRequests atomic.Int64
	totalUnits     atomic.Int64
	costMicros     atomic.Int64

	mu          sync.RWMutex
	perProvider map[string]int64
	since       time.Time

	window *window

	logger *zap.Logger
}

// NewAccountant creates an accountant keeping windowSize recent records
func NewAccountant(windowSize int, logger *zap.Logger) *Accountant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accountant{
		perProvider: make(map[string]int64),
		window:      newWindow(windowSize),
		since:       time.Now(),
		logger:      logger,
	}
}

// Record accounts for one successful routed request
func (a *Accountant) Record(result *providers.CompletionResult) {
	if result == nil {
		return
	}

	a.mu.Lock()
	a.totalRequests.Add(1)
	if result.UsedFallback {
		a.fallbackCount.Add(1)
	}
	a.totalUnits.Add(int64(result.UnitsConsumed))
	a.costMicros.Add(toMicros(result.CostEstimate))
	a.perProvider[result.Provider]++
	a.window.push(RequestRecord{
		RequestID:    result.RequestID,
		Provider:     result.Provider,
		Units:        int64(result.UnitsConsumed),
		Cost:         result.CostEstimate,
		LatencyMs:    result.LatencyMs,
		UsedFallback: result.UsedFallback,
		CompletedAt:  time.Now(),
	})
	a.mu.Unlock()

	a.logger.Debug("usage recorded",
		zap.String("request_id", result.RequestID),
		zap.String("provider", result.Provider),
		zap.Int("units", result.UnitsConsumed),
		zap.Float64("cost", result.CostEstimate),
		zap.Bool("used_fallback", result.UsedFallback),
	)
}

// RecordFailure counts a request on which every attempt failed
func (a *Accountant) RecordFailure() {
	a.mu.Lock()
	a.failedRequests.Add(1)
	a.mu.Unlock()
}

// Snapshot returns a copy of the current statistics
func (a *Accountant) Snapshot() Statistics {
	a.mu.RLock()
	perProvider := make(map[string]int64, len(a.perProvider))
	for name, count := range a.perProvider {
		perProvider[name] = count
	}
	stats := Statistics{
		TotalRequests:    a.totalRequests.Load(),
		PerProviderCount: perProvider,
		FallbackCount:    a.fallbackCount.Load(),
		FailedRequests:   a.failedRequests.Load(),
		CumulativeCost:   fromMicros(a.costMicros.Load()),
		TotalUnits:       a.totalUnits.Load(),
		ProviderShare:    make(map[string]float64, len(perProvider)),
		Since:            a.since,
	}
	a.mu.RUnlock()

	stats.AverageLatencyMs = a.window.averageLatency()
	stats.Timestamp = time.Now()

	// Shares sum to 100
	var counted int64
	for _, count := range perProvider {
		counted += count
	}
	if counted > 0 {
		for name, count := range perProvider {
			stats.ProviderShare[name] = percent(count, counted)
		}
	}
	if stats.TotalRequests > 0 {
		stats.FallbackRate = percent(stats.FallbackCount, stats.TotalRequests)
	}

	return stats
}

// Recent returns up to n of the most recent records, oldest first
func (a *Accountant) Recent(n int) []RequestRecord {
	return a.window.recent(n)
}

// Reset clears all counters and the rolling window
func (a *Accountant) Reset() {
	a.mu.Lock()
	a.totalRequests.Store(0)
	a.fallbackCount.Store(0)
	a.failedRequests.Store(0)
	a.totalUnits.Store(0)
	a.costMicros.Store(0)
	a.perProvider = make(map[string]int64)
	a.since = time.Now()
	a.window.reset()
	a.mu.Unlock()

	a.logger.Info("usage statistics reset")
}

func percent(part, whole int64) float64 {
	return float64(part) / float64(whole) * 100
}
