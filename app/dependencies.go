package app

import (
	"context"
	"fmt"

	"github.com/upb/inference-router/config"
	"github.com/upb/inference-router/handlers"
	"github.com/upb/inference-router/middleware"
	"github.com/upb/inference-router/services"
	"github.com/upb/inference-router/services/providers"
	"github.com/upb/inference-router/services/providers/anthropic"
	"github.com/upb/inference-router/services/providers/openai"
	"github.com/upb/inference-router/services/routing"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies
// This is the central wiring point for dependency injection
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Routing
	Registry *providers.Registry
	Router   *routing.Router

	// HTTP
	RouterHandler     *handlers.RouterHandler
	HealthHandler     *handlers.HealthHandler
	RequestMiddleware *middleware.RequestMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	registry, err := NewRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	return NewDependenciesWithRegistry(cfg, registry, logger)
}

// NewDependenciesWithRegistry wires the router and HTTP layer over an already built registry
func NewDependenciesWithRegistry(cfg *config.Config, registry *providers.Registry, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
	}

	// Initialize router
	if err := deps.initRouter(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	// Initialize HTTP layer
	deps.RouterHandler = handlers.NewRouterHandler(deps.Router, logger)
	deps.HealthHandler = handlers.NewHealthHandler(deps.Router, logger)
	deps.RequestMiddleware = middleware.NewRequestMiddleware(logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewRegistry builds the provider registry from every provider that has an API key
func NewRegistry(cfg *config.Config, logger *zap.Logger) (*providers.Registry, error) {
	configs := cfg.Providers.ProviderConfigs()
	if len(configs) == 0 {
		logger.Warn("no LLM providers configured")
	}

	registry, err := providers.NewRegistryBuilder().
		WithProviderBuilder(config.KindOpenAI, openai.Build).
		WithProviderBuilder(config.KindAnthropic, anthropic.Build).
		Build(configs)
	if err != nil {
		return nil, services.Wrap(services.ErrProviderSetup, err)
	}

	for _, desc := range registry.Descriptors() {
		logger.Info("provider registered",
			zap.String("provider", desc.Name),
			zap.String("model", desc.Model),
			zap.Float64("cost_per_million_units", desc.CostPerMillionUnits),
			zap.Int64("estimated_latency_ms", desc.EstimatedLatencyMs))
	}

	return registry, nil
}

// initRouter creates the router with the configured initial strategy
func (d *Dependencies) initRouter(cfg *config.Config) error {
	strategy, err := cfg.Routing.ParsedStrategy()
	if err != nil {
		return err
	}

	router, err := routing.NewRouter(d.Registry, routing.Config{
		Strategy:   strategy,
		WindowSize: cfg.Routing.WindowSize,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.Router = router
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	if d.Router != nil {
		stats := d.Router.GetUsageStatistics()
		d.Logger.Info("final usage statistics",
			zap.Int64("total_requests", stats.TotalRequests),
			zap.Int64("fallback_count", stats.FallbackCount),
			zap.Int64("failed_requests", stats.FailedRequests),
			zap.Float64("cumulative_cost", stats.CumulativeCost))
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return nil
}
