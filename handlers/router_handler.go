package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/upb/inference-router/middleware"
	"github.com/upb/inference-router/services/providers"
	"github.com/upb/inference-router/services/routing"
	"github.com/upb/inference-router/services/usage"
	"github.com/upb/inference-router/utils"
	"go.uber.org/zap"
)

// DefaultRecentLimit is the number of records returned by /usage/recent without ?limit
const DefaultRecentLimit = 50

// RouterService is the routing surface the HTTP gateway depends on
type RouterService interface {
	Route(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResult, error)
	SetStrategy(strategy routing.Strategy) error
	Strategy() routing.Strategy
	GetUsageStatistics() usage.Statistics
	RecentRequests(n int) []usage.RequestRecord
	ResetUsageStatistics()
	ProjectMonthlyCost(monthlyUnits int64) (routing.CostProjection, error)
	Providers() []providers.Descriptor
}

// MaxTimeoutMs caps the per-attempt timeout a caller may request
const MaxTimeoutMs = 600_000

// CompletionRequestBody is the JSON body of POST /api/v1/completions
type CompletionRequestBody struct {
	Kind           providers.RequestKind `json:"kind" validate:"required"`
	Prompt         string                `json:"prompt" validate:"required"`
	System         string                `json:"system,omitempty"`
	Temperature    *float64              `json:"temperature,omitempty"`
	MaxOutputUnits int                   `json:"max_output_units,omitempty"`
	Schema         map[string]any        `json:"schema,omitempty"`
	TimeoutMs      int64                 `json:"timeout_ms,omitempty" validate:"gte=0,lte=600000"`
	Metadata       map[string]string     `json:"metadata,omitempty"`
}

// StrategyBody is the JSON body of GET and PUT /api/v1/strategy
type StrategyBody struct {
	Strategy   string   `json:"strategy" validate:"required"`
	Strategies []string `json:"strategies,omitempty"`
}

// RouterHandler exposes the router over HTTP
type RouterHandler struct {
	service RouterService
	logger  *zap.Logger
}

// NewRouterHandler creates a new RouterHandler
func NewRouterHandler(service RouterService, logger *zap.Logger) *RouterHandler {
	return &RouterHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCompletion handles POST /api/v1/completions
func (h *RouterHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var body CompletionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	req := &providers.CompletionRequest{
		Kind:           body.Kind,
		Prompt:         body.Prompt,
		System:         body.System,
		Temperature:    body.Temperature,
		MaxOutputUnits: body.MaxOutputUnits,
		Schema:         body.Schema,
		Timeout:        time.Duration(body.TimeoutMs) * time.Millisecond,
		Metadata:       body.Metadata,
	}

	// The gateway request ID doubles as the routing request ID unless the caller set one
	if requestID != "" {
		if req.Metadata == nil {
			req.Metadata = make(map[string]string, 1)
		}
		if req.Metadata[routing.MetadataRequestID] == "" {
			req.Metadata[routing.MetadataRequestID] = requestID
		}
	}

	result, err := h.service.Route(ctx, req)
	if err != nil {
		h.logger.Warn("completion failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("completion routed",
		zap.String("request_id", result.RequestID),
		zap.String("provider", result.Provider),
		zap.Int("units", result.UnitsConsumed),
		zap.Int64("latency_ms", result.LatencyMs),
		zap.Float64("cost", result.CostEstimate),
		zap.Bool("used_fallback", result.UsedFallback))

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// HandleGetUsage handles GET /api/v1/usage
func (h *RouterHandler) HandleGetUsage(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteOK(w, h.service.GetUsageStatistics()); err != nil {
		h.logger.Error("failed to write usage response", zap.Error(err))
	}
}

// HandleResetUsage handles DELETE /api/v1/usage
func (h *RouterHandler) HandleResetUsage(w http.ResponseWriter, r *http.Request) {
	h.service.ResetUsageStatistics()
	h.logger.Info("usage statistics reset",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
	utils.WriteNoContent(w)
}

// HandleRecentRequests handles GET /api/v1/usage/recent?limit=N
func (h *RouterHandler) HandleRecentRequests(w http.ResponseWriter, r *http.Request) {
	limit := DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = utils.WriteBadRequest(w, "limit must be a positive integer", map[string]interface{}{"limit": raw})
			return
		}
		limit = n
	}

	if err := utils.WriteOK(w, h.service.RecentRequests(limit)); err != nil {
		h.logger.Error("failed to write recent requests response", zap.Error(err))
	}
}

// HandleGetStrategy handles GET /api/v1/strategy
func (h *RouterHandler) HandleGetStrategy(w http.ResponseWriter, r *http.Request) {
	known := routing.Strategies()
	names := make([]string, len(known))
	for i, s := range known {
		names[i] = s.String()
	}

	_ = utils.WriteOK(w, StrategyBody{
		Strategy:   h.service.Strategy().String(),
		Strategies: names,
	})
}

// HandleSetStrategy handles PUT /api/v1/strategy
func (h *RouterHandler) HandleSetStrategy(w http.ResponseWriter, r *http.Request) {
	var body StrategyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	strategy, err := routing.ParseStrategy(body.Strategy)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), map[string]interface{}{"strategy": body.Strategy})
		return
	}

	if err := h.service.SetStrategy(strategy); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, StrategyBody{Strategy: strategy.String()})
}

// HandleCostProjection handles GET /api/v1/cost-projection?units=N
func (h *RouterHandler) HandleCostProjection(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("units")
	if raw == "" {
		_ = utils.WriteBadRequest(w, "units query parameter is required", nil)
		return
	}
	units, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "units must be an integer", map[string]interface{}{"units": raw})
		return
	}

	projection, err := h.service.ProjectMonthlyCost(units)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, projection); err != nil {
		h.logger.Error("failed to write projection response", zap.Error(err))
	}
}

// HandleListProviders handles GET /api/v1/providers
func (h *RouterHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteOK(w, h.service.Providers()); err != nil {
		h.logger.Error("failed to write providers response", zap.Error(err))
	}
}
