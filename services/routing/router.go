// Package routing selects a provider per request, falls back once on failure
// and keeps usage accounting for every routed request
package routing

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/upb/inference-router/services"
	"github.com/upb/inference-router/services/providers"
	"github.com/upb/inference-router/services/usage"
	"github.com/upb/inference-router/utils"
	"go.uber.org/zap"
)

// DefaultStrategy is used when Config.Strategy is empty
const DefaultStrategy = StrategyBalanced

// MetadataRequestID lets callers propagate their own request ID
const MetadataRequestID = "request_id"

// Config holds construction options for the router
type Config struct {
	// Strategy is the initial active strategy
	Strategy Strategy

	// Draw overrides the balanced strategy's random source
	Draw func() float64

	// WindowSize is the number of recent requests kept for latency averages
	WindowSize int
}

// Router is the entry point callers use to route completion requests
type Router struct {
	registry   *providers.Registry
	descs      []providers.Descriptor
	selector   *Selector
	executor   *executor
	accountant *usage.Accountant
	strategy   atomic.Value
	logger     *zap.Logger
}

// NewRouter creates a router over a populated registry
func NewRouter(registry *providers.Registry, cfg Config, logger *zap.Logger) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil || registry.GetProviderCount() == 0 {
		return nil, services.ErrNoProviders
	}

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = DefaultStrategy
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", services.ErrUnknownStrategy, strategy)
	}

	selector := NewSelector(cfg.Draw)
	r := &Router{
		registry: registry,
		descs:    registry.Descriptors(),
		selector: selector,
		executor: &executor{
			registry: registry,
			selector: selector,
			logger:   logger,
		},
		accountant: usage.NewAccountant(cfg.WindowSize, logger),
		logger:     logger,
	}
	r.strategy.Store(strategy)

	logger.Info("router initialized",
		zap.String("strategy", strategy.String()),
		zap.Strings("providers", registry.ListProviders()),
	)

	return r, nil
}

// Route selects a provider, executes the request and records usage
// It returns an error only for invalid requests or when both attempts failed
func (r *Router) Route(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResult, error) {
	if err := req.Validate(); err != nil {
		domainErr := services.Wrap(services.ErrInvalidRequest, err)
		for field, msg := range utils.GetValidationFields(err) {
			domainErr.WithDetail(field, msg)
		}
		return nil, domainErr
	}

	requestID := req.Metadata[MetadataRequestID]
	if requestID == "" {
		requestID = uuid.New().String()
	}
	logger := r.logger.With(zap.String("request_id", requestID))

	strategy := r.Strategy()
	primary, err := r.selector.Select(strategy, r.descs)
	if err != nil {
		return nil, err
	}

	logger.Debug("provider selected",
		zap.String("strategy", strategy.String()),
		zap.String("provider", primary.Provider.Name),
		zap.String("role", string(primary.Role)),
	)

	start := time.Now()
	out, err := r.executor.execute(ctx, strategy, primary, r.descs, req)
	if err != nil {
		r.accountant.RecordFailure()
		logger.Error("request failed on every attempt", zap.Error(err))
		return nil, err
	}

	units := out.completion.Units()
	result := &providers.CompletionResult{
		RequestID:     requestID,
		Text:          out.completion.Text,
		Provider:      out.provider.Name,
		Model:         out.completion.Model,
		FinishReason:  out.completion.FinishReason,
		UnitsConsumed: units,
		CostEstimate:  usage.CostFor(int64(units), out.provider),
		LatencyMs:     time.Since(start).Milliseconds(),
		UsedFallback:  out.usedFallback,
	}
	if result.Model == "" {
		result.Model = out.provider.Model
	}
	if out.originalErr != nil {
		result.OriginalError = out.originalErr.Error()
	}

	r.accountant.Record(result)

	return result, nil
}

// SetStrategy swaps the active strategy for subsequent requests
func (r *Router) SetStrategy(strategy Strategy) error {
	if !strategy.Valid() {
		return fmt.Errorf("%w: %q", services.ErrUnknownStrategy, strategy)
	}

	previous := r.Strategy()
	r.strategy.Store(strategy)

	r.logger.Info("routing strategy changed",
		zap.String("from", previous.String()),
		zap.String("to", strategy.String()),
	)
	return nil
}

// Strategy returns the active strategy
func (r *Router) Strategy() Strategy {
	return r.strategy.Load().(Strategy)
}

// GetUsageStatistics returns a snapshot of usage since the last reset
func (r *Router) GetUsageStatistics() usage.Statistics {
	stats := r.accountant.Snapshot()
	if premium, ok := LowestLatency(r.descs); ok {
		stats.EstimatedSavings = stats.SavingsAgainst(premium)
	}
	return stats
}

// RecentRequests returns up to n of the most recently routed requests
func (r *Router) RecentRequests(n int) []usage.RequestRecord {
	return r.accountant.Recent(n)
}

// ResetUsageStatistics clears all accounting
func (r *Router) ResetUsageStatistics() {
	r.accountant.Reset()
}

// ProjectedMonthlyCost estimates the monthly cost of units under strategy
// The result depends only on static pricing
func (r *Router) ProjectedMonthlyCost(strategy Strategy, monthlyUnits int64) (float64, error) {
	return ProjectedMonthlyCost(r.descs, strategy, monthlyUnits)
}

// ProjectMonthlyCost compares every strategy against the all-premium baseline
func (r *Router) ProjectMonthlyCost(monthlyUnits int64) (CostProjection, error) {
	return Project(r.descs, r.Strategy(), monthlyUnits)
}

// Providers returns the registered provider descriptors sorted by name
func (r *Router) Providers() []providers.Descriptor {
	descs := make([]providers.Descriptor, len(r.descs))
	copy(descs, r.descs)
	return descs
}
